package parcelrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"parcels/internal/adapters/out/postgres/pgerr"
	"parcels/internal/adapters/out/postgres/schema"
	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/core/domain/model/parcel"
	"parcels/internal/core/ports"
	"parcels/internal/pkg/errs"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var _ ports.ParcelRepository = &GormParcelRepository{}

var savepointSeq atomic.Uint64

// GormParcelRepository stores parcels in a table whose optional columns are
// described by a schema snapshot. Only columns present in the snapshot are
// ever written or read.
type GormParcelRepository struct {
	db       *gorm.DB
	schema   *schema.Snapshot
	literals StatusLiterals
}

func NewGormParcelRepository(db *gorm.DB, snapshot *schema.Snapshot, literals StatusLiterals) *GormParcelRepository {
	return &GormParcelRepository{
		db:       db,
		schema:   snapshot,
		literals: literals,
	}
}

// Add inserts the parcel and assigns its identity. Inside a transaction the
// insert is guarded by a savepoint so a rejected tracking code leaves the
// transaction usable for the next attempt. The savepoint is released either way.
func (r *GormParcelRepository) Add(ctx context.Context, aggregate *parcel.Parcel) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	if aggregate.IsStored() {
		return errs.NewValueIsInvalidErrorWithCause("parcel",
			fmt.Errorf("parcel %d is already stored", aggregate.ID()))
	}

	columns, values := r.insertValues(aggregate)
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		pq.QuoteIdentifier(r.schema.Table()),
		quoteAll(columns),
		strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "),
		pq.QuoteIdentifier(schema.ColumnID),
	)

	db := r.db.WithContext(ctx)
	savepoint := ""
	if _, inTx := db.Statement.ConnPool.(gorm.TxCommitter); inTx {
		savepoint = fmt.Sprintf("parcel_insert_%d", savepointSeq.Add(1))
		if err := db.SavePoint(savepoint).Error; err != nil {
			return pgerr.Classify(err, "savepoint", "parcel", nil)
		}
	}

	var id int64
	err := db.Raw(query, values...).Row().Scan(&id)
	if savepoint != "" {
		if err != nil {
			if rbErr := db.RollbackTo(savepoint).Error; rbErr != nil {
				return errors.Join(r.classifyInsert(err), rbErr)
			}
		}
		if relErr := db.Exec("RELEASE SAVEPOINT " + savepoint).Error; relErr != nil {
			return errors.Join(r.classifyInsert(err), pgerr.Classify(relErr, "release savepoint", "parcel", nil))
		}
	}
	if err != nil {
		return r.classifyInsert(err)
	}

	return aggregate.AssignIdentity(kernel.ID(id))
}

func (r *GormParcelRepository) classifyInsert(err error) error {
	classified := pgerr.Classify(err, "insert parcel", "parcel", nil)

	var cv *errs.ConstraintViolationError
	if errors.As(classified, &cv) && cv.Kind == errs.UniqueConstraint && isCodeConstraint(cv.Constraint) {
		return fmt.Errorf("%w: %w", parcel.ErrTrackingCodeTaken, classified)
	}
	return classified
}

// isCodeConstraint reports whether a unique constraint guards the tracking
// code or its barcode mirror. An unnamed constraint is assumed to.
func isCodeConstraint(name string) bool {
	name = strings.ToLower(name)
	return name == "" ||
		strings.Contains(name, schema.ColumnTrackingCode) ||
		strings.Contains(name, schema.ColumnBarcode)
}

func (r *GormParcelRepository) insertValues(p *parcel.Parcel) ([]string, []any) {
	columns := make([]string, 0, 20)
	values := make([]any, 0, 20)
	set := func(column string, value any) {
		columns = append(columns, column)
		values = append(values, r.schema.Coerce(column, value))
	}
	setOptional := func(column string, value any) {
		if r.schema.HasColumn(column) {
			set(column, value)
		}
	}

	set(schema.ColumnTrackingCode, p.TrackingCode())
	set(r.schema.DescriptionColumn(), p.Description())
	set(schema.ColumnStatus, r.literals.Literal(p.Status()))
	set(schema.ColumnOriginSectorID, p.OriginSectorID().Int64())
	set(schema.ColumnDestinationSectorID, p.DestinationSectorID().Int64())
	set(schema.ColumnOriginPersonID, idValue(p.Origin().PersonID()))
	set(schema.ColumnDestinationPersonID, idValue(p.Destination().PersonID()))
	set(schema.ColumnCreatedAt, p.CreatedAt())
	set(schema.ColumnUpdatedAt, p.UpdatedAt())
	if p.DeliveredAt() != nil {
		set(schema.ColumnDeliveredAt, *p.DeliveredAt())
	}

	setOptional(schema.ColumnRoutingCode, nullIfEmpty(p.RoutingPayload()))
	setOptional(schema.ColumnBarcode, nullIfEmpty(p.Barcode()))
	setOptional(schema.ColumnUrgent, p.Urgent())
	setOptional(schema.ColumnSealID, idValue(p.SealID()))
	setOptional(schema.ColumnBagID, idValue(p.BagID()))
	setOptional(schema.ColumnReceiptNumber, nullIfEmpty(p.ReceiptNumber()))
	setOptional(schema.ColumnHubFlag, p.HubRequired())
	setOptional(schema.ColumnHubSectorID, idValue(p.HubSectorID()))
	setOptional(schema.ColumnParentID, idValue(p.ParentID()))

	return columns, values
}

// Update writes the mutable fields of a stored parcel.
func (r *GormParcelRepository) Update(ctx context.Context, aggregate *parcel.Parcel) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	updates := map[string]any{
		r.schema.DescriptionColumn():     aggregate.Description(),
		schema.ColumnStatus:              r.literals.Literal(aggregate.Status()),
		schema.ColumnOriginSectorID:      aggregate.OriginSectorID().Int64(),
		schema.ColumnDestinationSectorID: aggregate.DestinationSectorID().Int64(),
		schema.ColumnUpdatedAt:           aggregate.UpdatedAt(),
		schema.ColumnDeliveredAt:         timeValue(aggregate),
	}
	optional := map[string]any{
		schema.ColumnUrgent:        aggregate.Urgent(),
		schema.ColumnReceiptNumber: nullIfEmpty(aggregate.ReceiptNumber()),
		schema.ColumnSealID:        idValue(aggregate.SealID()),
		schema.ColumnBagID:         idValue(aggregate.BagID()),
		schema.ColumnHubFlag:       aggregate.HubRequired(),
		schema.ColumnHubSectorID:   idValue(aggregate.HubSectorID()),
	}
	for column, value := range optional {
		if r.schema.HasColumn(column) {
			updates[column] = value
		}
	}
	for column, value := range updates {
		updates[column] = r.schema.Coerce(column, value)
	}

	result := r.db.WithContext(ctx).
		Table(r.schema.Table()).
		Where(pq.QuoteIdentifier(schema.ColumnID)+" = ?", aggregate.ID().Int64()).
		Updates(updates)
	if result.Error != nil {
		return pgerr.Classify(result.Error, "update parcel", "parcel", aggregate.ID())
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("parcel", aggregate.ID())
	}
	return nil
}

func (r *GormParcelRepository) Get(ctx context.Context, id kernel.ID) (*parcel.Parcel, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate locks the parcel row with NOWAIT; a held lock is reported as
// errs.ResourceBusyError instead of blocking.
func (r *GormParcelRepository) GetForUpdate(ctx context.Context, id kernel.ID) (*parcel.Parcel, error) {
	return r.get(ctx, id, " FOR UPDATE OF t NOWAIT")
}

func (r *GormParcelRepository) get(ctx context.Context, id kernel.ID, locking string) (*parcel.Parcel, error) {
	query := fmt.Sprintf(`SELECT %s,
		(SELECT pe.sector_id FROM %s pe WHERE pe.id = t.%s) AS %s,
		(SELECT pe.sector_id FROM %s pe WHERE pe.id = t.%s) AS %s
		FROM %s t WHERE t.%s = ?%s`,
		r.selectList(),
		pq.QuoteIdentifier(schema.PeopleTable), pq.QuoteIdentifier(schema.ColumnOriginPersonID), originHomeSector,
		pq.QuoteIdentifier(schema.PeopleTable), pq.QuoteIdentifier(schema.ColumnDestinationPersonID), destinationHomeSector,
		pq.QuoteIdentifier(r.schema.Table()), pq.QuoteIdentifier(schema.ColumnID), locking,
	)

	var rows []map[string]any
	if err := r.db.WithContext(ctx).Raw(query, id.Int64()).Find(&rows).Error; err != nil {
		return nil, pgerr.Classify(err, "get parcel", "parcel", id)
	}
	if len(rows) == 0 {
		return nil, errs.NewObjectNotFoundError("parcel", id)
	}

	p, err := row(rows[0]).toDomain(r.schema, r.literals)
	if err != nil {
		return nil, fmt.Errorf("restore parcel %d: %w", id, err)
	}
	return p, nil
}

func (r *GormParcelRepository) selectList() string {
	columns := append(schema.MandatoryColumns(), r.schema.DescriptionColumn())
	columns = append(columns, r.schema.OptionalColumns()...)
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = "t." + pq.QuoteIdentifier(c)
	}
	return strings.Join(quoted, ", ")
}

// ClearReferences nulls the parcel's own bag and seal columns, when present.
func (r *GormParcelRepository) ClearReferences(ctx context.Context, id kernel.ID) error {
	updates := map[string]any{}
	for _, column := range []string{schema.ColumnSealID, schema.ColumnBagID} {
		if r.schema.HasColumn(column) {
			updates[column] = nil
		}
	}
	if len(updates) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).
		Table(r.schema.Table()).
		Where(pq.QuoteIdentifier(schema.ColumnID)+" = ?", id.Int64()).
		Updates(updates).Error
	return pgerr.Classify(err, "clear parcel references", "parcel", id)
}

// DeleteEvents removes history rows of the parcel. Deployments without a
// history table are skipped.
func (r *GormParcelRepository) DeleteEvents(ctx context.Context, id kernel.ID) error {
	if !r.schema.HasEventsTable() {
		return nil
	}
	err := r.db.WithContext(ctx).Exec(
		fmt.Sprintf("DELETE FROM %s WHERE parcel_id = ?", pq.QuoteIdentifier(schema.EventsTable)),
		id.Int64(),
	).Error
	return pgerr.Classify(err, "delete parcel events", "parcel", id)
}

// Delete removes the parcel row. A remaining dependent row is reported as
// errs.ConflictError.
func (r *GormParcelRepository) Delete(ctx context.Context, id kernel.ID) error {
	result := r.db.WithContext(ctx).Exec(
		fmt.Sprintf("DELETE FROM %s WHERE %s = ?",
			pq.QuoteIdentifier(r.schema.Table()), pq.QuoteIdentifier(schema.ColumnID)),
		id.Int64(),
	)
	if result.Error != nil {
		err := pgerr.Classify(result.Error, "delete parcel", "parcel", id)
		var cv *errs.ConstraintViolationError
		if errors.As(err, &cv) && cv.Kind == errs.ForeignKeyConstraint {
			return errs.NewConflictErrorWithCause("parcel", id,
				fmt.Sprintf("still referenced through %s", cv.Constraint), cv)
		}
		return err
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("parcel", id)
	}
	return nil
}

func quoteAll(columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = pq.QuoteIdentifier(c)
	}
	return strings.Join(quoted, ", ")
}

func idValue(id *kernel.ID) any {
	if id == nil {
		return nil
	}
	return id.Int64()
}

func timeValue(p *parcel.Parcel) any {
	if p.DeliveredAt() == nil {
		return nil
	}
	return *p.DeliveredAt()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
