package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"designden/internal/domain"
	"designden/internal/errors"
)

const orderColumns = `
	id, customer_id, order_type, status, total_amount, payment_status,
	manager_id, designer_id, delivery_person_id, progress_percentage,
	otp_code, otp_generated_at, otp_verified,
	shipping_address, milestones, proof_of_delivery,
	version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

type MySQLOrderRepository struct {
	db    *sql.DB
	items *MySQLOrderItemRepository
}

func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{
		db:    db,
		items: NewMySQLOrderItemRepository(db),
	}
}

func (r *MySQLOrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	address, milestones, proof, err := encodeDocuments(order)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	otpCode, otpGeneratedAt, otpVerified := otpColumns(order.DeliveryOTP)

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		order.ID, order.CustomerID, order.OrderType, order.Status, order.TotalAmount, order.PaymentStatus,
		order.ManagerID, order.DesignerID, order.DeliveryPersonID, order.ProgressPercentage,
		otpCode, otpGeneratedAt, otpVerified,
		address, milestones, proof,
		order.Version, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if stderrors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return errors.NewConflictError(fmt.Sprintf("order with id %s already exists", order.ID))
		}
		return fmt.Errorf("inserting order: %w", err)
	}

	if err := r.items.InsertAll(ctx, tx, order.ID, order.Items); err != nil {
		return err
	}

	if err := insertTimeline(ctx, tx, order.ID, 0, order.Timeline); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing order insert: %w", err)
	}

	return nil
}

// FindByID reads the order, its items and timeline from one consistent
// snapshot.
func (r *MySQLOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("beginning read transaction: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`

	order, err := scanOrder(tx.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("order with id %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying order by id: %w", err)
	}

	items, err := r.items.FindByOrderIDs(ctx, tx, []string{id})
	if err != nil {
		return nil, err
	}
	order.Items = items[id]

	order.Timeline, err = findTimeline(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	return order, nil
}

// Commit writes the mutable part of order if the stored row still has the
// expected status and version. Timeline entries beyond the stored ones are
// appended. On success order.Version is advanced.
func (r *MySQLOrderRepository) Commit(ctx context.Context, order *domain.Order, expected domain.Status) error {
	_, milestones, proof, err := encodeDocuments(order)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	otpCode, otpGeneratedAt, otpVerified := otpColumns(order.DeliveryOTP)

	query := `
		UPDATE orders
		SET status = ?, manager_id = ?, designer_id = ?, delivery_person_id = ?,
		    progress_percentage = ?, otp_code = ?, otp_generated_at = ?, otp_verified = ?,
		    milestones = ?, proof_of_delivery = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND status = ? AND version = ?
	`
	result, err := tx.ExecContext(ctx, query,
		order.Status, order.ManagerID, order.DesignerID, order.DeliveryPersonID,
		order.ProgressPercentage, otpCode, otpGeneratedAt, otpVerified,
		milestones, proof, order.UpdatedAt,
		order.ID, expected, order.Version,
	)
	if err != nil {
		return fmt.Errorf("updating order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM orders WHERE id = ?`, order.ID).Scan(&one)
		if err == sql.ErrNoRows {
			return errors.NewNotFoundError(fmt.Sprintf("order with id %s not found", order.ID))
		}
		if err != nil {
			return fmt.Errorf("checking order existence: %w", err)
		}
		return errors.NewConflictError(fmt.Sprintf("order %s is no longer %s at version %d", order.ID, expected, order.Version))
	}

	var persisted int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM order_timeline WHERE order_id = ?`, order.ID).Scan(&persisted)
	if err != nil {
		return fmt.Errorf("counting timeline entries: %w", err)
	}
	if persisted > len(order.Timeline) {
		return errors.NewConflictError(fmt.Sprintf("order %s timeline has %d stored entries, commit carries %d", order.ID, persisted, len(order.Timeline)))
	}

	if err := insertTimeline(ctx, tx, order.ID, persisted, order.Timeline[persisted:]); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing order update: %w", err)
	}

	order.Version++
	return nil
}

// List returns orders newest first with their items. Timelines are not loaded.
func (r *MySQLOrderRepository) List(ctx context.Context, filter ListFilter) ([]*domain.Order, error) {
	where, args := filterClause(filter)
	query := `SELECT ` + orderColumns + ` FROM orders` + where + ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	args = append(args, filter.limit(), filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	var ids []string
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order row: %w", err)
		}
		orders = append(orders, order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order rows: %w", err)
	}

	items, err := r.items.FindByOrderIDs(ctx, nil, ids)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		o.Items = items[o.ID]
	}

	return orders, nil
}

func (r *MySQLOrderRepository) CountByStatus(ctx context.Context, filter ListFilter) (map[domain.Status]int, error) {
	where, args := filterClause(filter)
	query := `SELECT status, COUNT(*) FROM orders` + where + ` GROUP BY status`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("counting orders by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Status]int)
	for rows.Next() {
		var (
			status domain.Status
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating status counts: %w", err)
	}

	return counts, nil
}

// FindMissingOTP lists orders in a delivery status that carry no OTP.
func (r *MySQLOrderRepository) FindMissingOTP(ctx context.Context) ([]string, error) {
	query := `
		SELECT id FROM orders
		WHERE status IN (?, ?, ?, ?)
		  AND (otp_code IS NULL OR otp_code = '')
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query,
		domain.StatusReadyForPickup, domain.StatusPickedUp, domain.StatusInTransit, domain.StatusOutForDelivery,
	)
	if err != nil {
		return nil, fmt.Errorf("querying orders without otp: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning order id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order ids: %w", err)
	}

	return ids, nil
}

func filterClause(f ListFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if f.CustomerID != "" {
		conds = append(conds, "customer_id = ?")
		args = append(args, f.CustomerID)
	}
	if f.DesignerID != "" {
		conds = append(conds, "designer_id = ?")
		args = append(args, f.DesignerID)
	}
	if f.DeliveryPersonID != "" {
		conds = append(conds, "delivery_person_id = ?")
		args = append(args, f.DeliveryPersonID)
	}
	if len(f.Statuses) > 0 {
		placeholders := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			placeholders[i] = "?"
			args = append(args, s)
		}
		conds = append(conds, "status IN ("+strings.Join(placeholders, ", ")+")")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		order            domain.Order
		managerID        sql.NullString
		designerID       sql.NullString
		deliveryPersonID sql.NullString
		otpCode          sql.NullString
		otpGeneratedAt   sql.NullTime
		otpVerified      bool
		address          []byte
		milestones       []byte
		proof            []byte
	)

	err := row.Scan(
		&order.ID, &order.CustomerID, &order.OrderType, &order.Status, &order.TotalAmount, &order.PaymentStatus,
		&managerID, &designerID, &deliveryPersonID, &order.ProgressPercentage,
		&otpCode, &otpGeneratedAt, &otpVerified,
		&address, &milestones, &proof,
		&order.Version, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	order.ManagerID = nullableString(managerID)
	order.DesignerID = nullableString(designerID)
	order.DeliveryPersonID = nullableString(deliveryPersonID)

	if otpCode.Valid && otpCode.String != "" {
		order.DeliveryOTP = &domain.DeliveryOTP{
			Code:        otpCode.String,
			GeneratedAt: otpGeneratedAt.Time,
			Verified:    otpVerified,
		}
	}

	if err := json.Unmarshal(address, &order.ShippingAddress); err != nil {
		return nil, fmt.Errorf("decoding shipping address: %w", err)
	}
	if len(milestones) > 0 {
		if err := json.Unmarshal(milestones, &order.Milestones); err != nil {
			return nil, fmt.Errorf("decoding milestones: %w", err)
		}
	}
	if len(proof) > 0 && string(proof) != "null" {
		order.ProofOfDelivery = &domain.ProofOfDelivery{}
		if err := json.Unmarshal(proof, order.ProofOfDelivery); err != nil {
			return nil, fmt.Errorf("decoding proof of delivery: %w", err)
		}
	}

	return &order, nil
}

func encodeDocuments(order *domain.Order) (address, milestones, proof []byte, err error) {
	address, err = json.Marshal(order.ShippingAddress)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encoding shipping address: %w", err)
	}
	milestones, err = json.Marshal(order.Milestones)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encoding milestones: %w", err)
	}
	if order.ProofOfDelivery != nil {
		proof, err = json.Marshal(order.ProofOfDelivery)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("encoding proof of delivery: %w", err)
		}
	}
	return address, milestones, proof, nil
}

func otpColumns(otp *domain.DeliveryOTP) (*string, *time.Time, bool) {
	if otp == nil {
		return nil, nil, false
	}
	code := otp.Code
	generatedAt := otp.GeneratedAt
	return &code, &generatedAt, otp.Verified
}

func insertTimeline(ctx context.Context, tx *sql.Tx, orderID string, firstSeq int, events []domain.TimelineEvent) error {
	query := `
		INSERT INTO order_timeline (order_id, seq, status, note, location, actor_id, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for i, e := range events {
		_, err := tx.ExecContext(ctx, query, orderID, firstSeq+i, e.Status, e.Note, e.Location, e.ActorID, e.At)
		if err != nil {
			return fmt.Errorf("inserting timeline entry %d: %w", firstSeq+i, err)
		}
	}
	return nil
}

func findTimeline(ctx context.Context, q queryer, orderID string) ([]domain.TimelineEvent, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT status, note, location, actor_id, at
		FROM order_timeline
		WHERE order_id = ?
		ORDER BY seq
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("querying timeline: %w", err)
	}
	defer rows.Close()

	timeline := []domain.TimelineEvent{}
	for rows.Next() {
		var e domain.TimelineEvent
		if err := rows.Scan(&e.Status, &e.Note, &e.Location, &e.ActorID, &e.At); err != nil {
			return nil, fmt.Errorf("scanning timeline row: %w", err)
		}
		timeline = append(timeline, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating timeline rows: %w", err)
	}

	return timeline, nil
}
