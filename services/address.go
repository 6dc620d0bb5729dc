package services

import (
	"context"
	"database/sql"

	"github.com/KunArthit/petterrain-api-sub000/apperr"
	"github.com/KunArthit/petterrain-api-sub000/database"
	"github.com/KunArthit/petterrain-api-sub000/models"

	"go.uber.org/zap"
)

const addressColumns = `id, user_id, address_type, recipient_name, phone, address_line,
	sub_district, district, province, zipcode, country, is_default, created_at`

type AddressService struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewAddressService(db *sql.DB, logger *zap.Logger) *AddressService {
	return &AddressService{db: db, logger: logger}
}

func scanAddress(row rowScanner) (models.UserAddress, error) {
	var a models.UserAddress
	err := row.Scan(&a.ID, &a.UserID, &a.AddressType, &a.RecipientName, &a.Phone, &a.AddressLine,
		&a.SubDistrict, &a.District, &a.Province, &a.Zipcode, &a.Country, &a.IsDefault, &a.CreatedAt)
	return a, err
}

// Resolve finds the address to bill or ship to. With an explicit id the row
// must also belong to userID. Without one the user's default is used,
// shipping before billing. found is false when nothing matches; callers
// must branch on it.
func (s *AddressService) Resolve(ctx context.Context, userID int64, addressID *int64) (models.UserAddress, bool, error) {
	return s.resolve(ctx, s.db, userID, addressID)
}

func (s *AddressService) resolve(ctx context.Context, q database.Querier, userID int64, addressID *int64) (models.UserAddress, bool, error) {
	var row *sql.Row
	if addressID != nil {
		row = q.QueryRowContext(ctx,
			"SELECT "+addressColumns+" FROM user_addresses WHERE id = $1 AND user_id = $2",
			*addressID, userID)
	} else {
		row = q.QueryRowContext(ctx,
			"SELECT "+addressColumns+" FROM user_addresses WHERE user_id = $1 AND is_default "+
				"ORDER BY (address_type = 'shipping') DESC, id LIMIT 1",
			userID)
	}

	addr, err := scanAddress(row)
	if database.IsNoRows(err) {
		return models.UserAddress{}, false, nil
	}
	if err != nil {
		return models.UserAddress{}, false, apperr.Internal("address.resolve", err)
	}
	return addr, true, nil
}

// Create stores a new address. When it is marked default, any previous
// default of the same type is cleared in the same transaction.
func (s *AddressService) Create(ctx context.Context, userID int64, req models.CreateAddressRequest) (models.UserAddress, error) {
	var addr models.UserAddress
	err := database.WithTx(ctx, s.db, "address.create", func(tx *sql.Tx) error {
		if req.IsDefault {
			if err := clearDefault(ctx, tx, userID, req.AddressType); err != nil {
				return err
			}
		}

		row := tx.QueryRowContext(ctx,
			`INSERT INTO user_addresses (user_id, address_type, recipient_name, phone, address_line,
				sub_district, district, province, zipcode, country, is_default)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING `+addressColumns,
			userID, req.AddressType, req.RecipientName, req.Phone, req.AddressLine,
			req.SubDistrict, req.District, req.Province, req.Zipcode, req.Country, req.IsDefault)

		var err error
		addr, err = scanAddress(row)
		if database.IsForeignKeyViolation(err) {
			return apperr.NotFound("address.create", "user %d not found", userID)
		}
		return err
	})
	if err != nil {
		return models.UserAddress{}, err
	}

	s.logger.Info("Address created",
		zap.Int64("user_id", userID),
		zap.Int64("address_id", addr.ID),
		zap.Bool("default", addr.IsDefault),
	)
	return addr, nil
}

func (s *AddressService) ListByUser(ctx context.Context, userID int64) ([]models.UserAddress, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+addressColumns+" FROM user_addresses WHERE user_id = $1 ORDER BY is_default DESC, id",
		userID)
	if err != nil {
		return nil, apperr.Internal("address.list", err)
	}
	defer rows.Close()

	addresses := []models.UserAddress{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, apperr.Internal("address.list", err)
		}
		addresses = append(addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal("address.list", err)
	}
	return addresses, nil
}

// SetDefault makes addressID the only default of its type for the user.
func (s *AddressService) SetDefault(ctx context.Context, userID, addressID int64) error {
	return database.WithTx(ctx, s.db, "address.set_default", func(tx *sql.Tx) error {
		var addrType models.AddressType
		err := tx.QueryRowContext(ctx,
			"SELECT address_type FROM user_addresses WHERE id = $1 AND user_id = $2 FOR UPDATE",
			addressID, userID).Scan(&addrType)
		if database.IsNoRows(err) {
			return apperr.NotFound("address.set_default", "address %d not found for user %d", addressID, userID)
		}
		if err != nil {
			return err
		}

		if err := clearDefault(ctx, tx, userID, addrType); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, "UPDATE user_addresses SET is_default = TRUE WHERE id = $1", addressID)
		return err
	})
}

func clearDefault(ctx context.Context, tx *sql.Tx, userID int64, addrType models.AddressType) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE user_addresses SET is_default = FALSE WHERE user_id = $1 AND address_type = $2 AND is_default",
		userID, addrType)
	return err
}
