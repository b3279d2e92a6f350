package incidents

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/url"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/assuralabs/assura/internal/extraction"
	"github.com/assuralabs/assura/internal/pii"
	"github.com/assuralabs/assura/pkg/crypto"
	"github.com/assuralabs/assura/pkg/pagination"
	"github.com/assuralabs/assura/pkg/query"
	"github.com/assuralabs/assura/pkg/repository"
	"github.com/assuralabs/assura/pkg/storage"
)

// Repository persists incidents, their documents, and their timelines.
// Sensitive columns are encrypted on the way in and decrypted on the way out.
type Repository struct {
	db         *sql.DB
	storage    storage.System
	cipher     crypto.Cipher
	pagination pagination.Config
}

func NewRepository(
	db *sql.DB,
	store storage.System,
	cipher crypto.Cipher,
	pagination pagination.Config,
) *Repository {
	return &Repository{
		db:         db,
		storage:    store,
		cipher:     cipher,
		pagination: pagination,
	}
}

// Insert persists a new incident in PENDING state and returns it decrypted.
func (r *Repository) Insert(
	ctx context.Context,
	ownerID string,
	story string,
	result extraction.Result,
	mapping pii.Mapping,
) (*Incident, error) {
	encryptedStory, err := r.cipher.Encrypt(story)
	if err != nil {
		return nil, fmt.Errorf("encrypt story: %w", err)
	}

	extracted, err := encodeExtraction(r.cipher, result)
	if err != nil {
		return nil, err
	}

	encodedMapping, err := encodeMapping(r.cipher, mapping)
	if err != nil {
		return nil, err
	}

	q := `
		INSERT INTO incidents(id, owner_id, status, story, extracted_data, pii_mapping)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, owner_id, status, story, extracted_data, pii_mapping, created_at, updated_at`

	args := []any{uuid.New(), ownerID, StatusPending, encryptedStory, extracted, encodedMapping}

	row, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (incidentRow, error) {
		return repository.QueryOne(ctx, tx, q, args, scanIncident)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	return r.decode(row)
}

// Get loads an incident by id without owner scoping, for the processing
// pipeline.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Incident, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	row, err := repository.QueryOne(ctx, r.db, q, args, scanIncident)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return r.decode(row)
}

// FindOwned loads an incident with its documents and time-ordered timeline,
// scoped to the owner. A mismatched owner reads as not found.
func (r *Repository) FindOwned(ctx context.Context, id uuid.UUID, ownerID string) (*Incident, error) {
	qb := query.NewBuilder(projection).
		WhereEquals("ID", &id).
		WhereEquals("OwnerID", &ownerID)

	q, args := qb.Build()

	row, err := repository.QueryOne(ctx, r.db, q, args, scanIncident)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	incident, err := r.decode(row)
	if err != nil {
		return nil, err
	}

	if incident.Documents, err = r.documents(ctx, id); err != nil {
		return nil, err
	}
	if incident.Timeline, err = r.Events(ctx, id); err != nil {
		return nil, err
	}

	return incident, nil
}

// List returns the owner's incidents, newest first by default.
func (r *Repository) List(
	ctx context.Context,
	ownerID string,
	page pagination.PageRequest,
) (*pagination.PageResult[Incident], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("OwnerID", &ownerID)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count incidents: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	rows, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanIncident)
	if err != nil {
		return nil, fmt.Errorf("query incidents: %w", err)
	}

	incidents := make([]Incident, 0, len(rows))
	for _, row := range rows {
		incident, err := r.decode(row)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, *incident)
	}

	result := pagination.NewPageResult(incidents, total, page.Page, page.PageSize)
	return &result, nil
}

// SetStatus transitions an incident's lifecycle state.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	err := repository.ExecExpectOne(
		ctx, r.db,
		"UPDATE incidents SET status = $1, updated_at = now() WHERE id = $2",
		status, id,
	)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}

// SaveExtraction replaces an incident's extracted data.
func (r *Repository) SaveExtraction(ctx context.Context, id uuid.UUID, result extraction.Result) error {
	extracted, err := encodeExtraction(r.cipher, result)
	if err != nil {
		return err
	}

	err = repository.ExecExpectOne(
		ctx, r.db,
		"UPDATE incidents SET extracted_data = $1, updated_at = now() WHERE id = $2",
		extracted, id,
	)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}

// AppendEvent records one timeline event for an incident.
func (r *Repository) AppendEvent(ctx context.Context, id uuid.UUID, eventType string, details map[string]any) error {
	encoded, err := encodeDetails(details)
	if err != nil {
		return err
	}

	err = repository.ExecExpectOne(
		ctx, r.db,
		"INSERT INTO claim_events(id, incident_id, event_type, details) VALUES ($1, $2, $3, $4)",
		uuid.New(), id, eventType, encoded,
	)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}

// Events returns an incident's timeline in chronological order.
func (r *Repository) Events(ctx context.Context, id uuid.UUID) ([]ClaimEvent, error) {
	q := `
		SELECT id, incident_id, event_type, details, created_at
		FROM claim_events
		WHERE incident_id = $1
		ORDER BY created_at ASC, id ASC`

	events, err := repository.QueryMany(ctx, r.db, q, []any{id}, scanEvent)
	if err != nil {
		return nil, fmt.Errorf("query claim events: %w", err)
	}
	return events, nil
}

// AttachDocument uploads attachment bytes to blob storage and records the
// document row. The blob is compensated away if the row insert fails.
func (r *Repository) AttachDocument(
	ctx context.Context,
	incidentID uuid.UUID,
	filename, contentType string,
	data []byte,
) (*Document, error) {
	id := uuid.New()
	key := buildStorageKey(incidentID, id, sanitizeFilename(filename))

	if err := r.storage.Upload(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return nil, fmt.Errorf("upload attachment blob: %w", err)
	}

	q := `
		INSERT INTO documents(id, incident_id, filename, content_type, size_bytes, storage_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, incident_id, filename, content_type, size_bytes, storage_key, uploaded_at`

	args := []any{id, incidentID, filename, contentType, int64(len(data)), key}

	doc, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		if delErr := r.storage.Delete(ctx, key); delErr != nil && delErr != storage.ErrNotFound {
			return nil, fmt.Errorf("record document: %w (blob cleanup also failed: %v)", err, delErr)
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	return &doc, nil
}

// FindOwnedDocument loads one attachment record, scoped to the incident
// owner. A mismatched owner reads as not found.
func (r *Repository) FindOwnedDocument(
	ctx context.Context,
	incidentID, docID uuid.UUID,
	ownerID string,
) (*Document, error) {
	q := `
		SELECT d.id, d.incident_id, d.filename, d.content_type, d.size_bytes, d.storage_key, d.uploaded_at
		FROM documents d
		JOIN incidents i ON i.id = d.incident_id
		WHERE d.id = $1 AND d.incident_id = $2 AND i.owner_id = $3`

	doc, err := repository.QueryOne(ctx, r.db, q, []any{docID, incidentID, ownerID}, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &doc, nil
}

// OpenBlob streams the stored attachment bytes for a document.
func (r *Repository) OpenBlob(ctx context.Context, key string) (io.ReadCloser, error) {
	return r.storage.Download(ctx, key)
}

func (r *Repository) documents(ctx context.Context, incidentID uuid.UUID) ([]Document, error) {
	q := `
		SELECT id, incident_id, filename, content_type, size_bytes, storage_key, uploaded_at
		FROM documents
		WHERE incident_id = $1
		ORDER BY uploaded_at ASC`

	docs, err := repository.QueryMany(ctx, r.db, q, []any{incidentID}, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	return docs, nil
}

func (r *Repository) decode(row incidentRow) (*Incident, error) {
	incident := row.Incident

	story, err := r.cipher.Decrypt(row.rawStory)
	if err != nil {
		return nil, fmt.Errorf("decrypt story: %w", err)
	}
	incident.Story = story

	if err := decodeExtraction(r.cipher, row.rawExtracted, &incident.ExtractedData); err != nil {
		return nil, err
	}

	if incident.PIIMapping, err = decodeMapping(r.cipher, row.rawMapping); err != nil {
		return nil, err
	}

	return &incident, nil
}

// buildStorageKey namespaces the blob by document id so repeated filenames
// within one incident never collide.
func buildStorageKey(incidentID, docID uuid.UUID, filename string) string {
	return fmt.Sprintf("incidents/%s/%s/%s", incidentID, docID, filename)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "" {
		name = "attachment"
	}
	return url.PathEscape(name)
}
