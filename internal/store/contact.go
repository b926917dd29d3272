package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"health-reminder-api/internal/model"
)

const contactCols = `id, owner_id, contact_name, phone_number, relationship_type`

func scanContact(row pgx.Row) (*model.EmergencyContact, error) {
	c := &model.EmergencyContact{}
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Phone, &c.Relationship); err != nil {
		return nil, dbErr(err)
	}
	return c, nil
}

func (s *Store) CreateContact(ctx context.Context, c *model.EmergencyContact) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO emergency_contacts (id, owner_id, contact_name, phone_number, relationship_type)
		 VALUES ($1,$2,$3,$4,$5)`,
		c.ID, c.OwnerID, c.Name, c.Phone, c.Relationship,
	)
	return dbErr(err)
}

func (s *Store) GetContact(ctx context.Context, id string) (*model.EmergencyContact, error) {
	return scanContact(s.pool.QueryRow(ctx,
		`SELECT `+contactCols+` FROM emergency_contacts WHERE id = $1`, id))
}

func (s *Store) ListContacts(ctx context.Context, ownerID string) ([]model.EmergencyContact, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+contactCols+` FROM emergency_contacts
		 WHERE owner_id = $1
		 ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, dbErr(err)
	}
	defer rows.Close()

	var out []model.EmergencyContact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, dbErr(rows.Err())
}

func (s *Store) UpdateContact(ctx context.Context, id string, p model.ContactPatch) (*model.EmergencyContact, error) {
	var out *model.EmergencyContact
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		c, err := scanContact(tx.QueryRow(ctx,
			`SELECT `+contactCols+` FROM emergency_contacts WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		p.Apply(c)
		if err := c.Validate(); err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`UPDATE emergency_contacts
			 SET contact_name=$1, phone_number=$2, relationship_type=$3, updated_at=NOW()
			 WHERE id=$4`,
			c.Name, c.Phone, c.Relationship, id,
		)
		if err != nil {
			return dbErr(err)
		}
		out = c
		return nil
	})
	return out, err
}

func (s *Store) DeleteContact(ctx context.Context, id string) (*model.EmergencyContact, error) {
	return scanContact(s.pool.QueryRow(ctx,
		`DELETE FROM emergency_contacts WHERE id=$1 RETURNING `+contactCols, id))
}
