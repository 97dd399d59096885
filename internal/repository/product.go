package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/apperrors"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/models"
)

var _ ProductRepository = (*PostgresProductRepository)(nil)

// PostgresProductRepository reads catalog products.
type PostgresProductRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresProductRepository(db *sql.DB, logger *zap.Logger) *PostgresProductRepository {
	return &PostgresProductRepository{db: db, logger: logger}
}

func (r *PostgresProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	var description, descriptionEN, subcategory, goldKarat sql.NullString
	var weight sql.NullFloat64

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, name_en, description, description_en, price,
		       category, subcategory, gold_karat, weight, stock_quantity,
		       is_featured, is_active, created_at, updated_at
		FROM products WHERE id = $1
	`, id).Scan(
		&p.ID, &p.Name, &p.NameEN, &description, &descriptionEN, &p.Price,
		&p.Category, &subcategory, &goldKarat, &weight, &p.StockQuantity,
		&p.IsFeatured, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}

	p.Description = description.String
	p.DescriptionEN = descriptionEN.String
	p.Subcategory = subcategory.String
	p.GoldKarat = models.Karat(goldKarat.String)
	p.Weight = weight.Float64
	return &p, nil
}
