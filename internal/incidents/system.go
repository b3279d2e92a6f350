package incidents

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/assuralabs/assura/internal/dispatch"
	"github.com/assuralabs/assura/internal/evidence"
	"github.com/assuralabs/assura/internal/extraction"
	"github.com/assuralabs/assura/internal/pii"
	"github.com/assuralabs/assura/pkg/pagination"
)

// System defines the public contract for incident domain operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	Create(ctx context.Context, cmd CreateCommand) (*CreateResponse, error)
	Find(ctx context.Context, id uuid.UUID, ownerID string) (*Incident, error)
	List(
		ctx context.Context,
		ownerID string,
		page pagination.PageRequest,
	) (*pagination.PageResult[Incident], error)
	OpenDocument(
		ctx context.Context,
		incidentID, docID uuid.UUID,
		ownerID string,
	) (*Document, io.ReadCloser, error)
}

// Extractor is the structured extraction boundary the intake flow depends on.
type Extractor interface {
	Extract(ctx context.Context, narrative string, agg *evidence.Aggregate) (extraction.Result, error)
}

// EvidenceProcessor analyzes attachments into an aggregated record.
type EvidenceProcessor interface {
	Process(ctx context.Context, attachments []evidence.Attachment) *evidence.Aggregate
}

type service struct {
	repo       *Repository
	evidence   EvidenceProcessor
	extractor  Extractor
	dispatcher dispatch.Dispatcher
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates the incident system over its collaborators.
func New(
	repo *Repository,
	processor EvidenceProcessor,
	extractor Extractor,
	dispatcher dispatch.Dispatcher,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &service{
		repo:       repo,
		evidence:   processor,
		extractor:  extractor,
		dispatcher: dispatcher,
		logger:     logger.With("system", "incidents"),
		pagination: pagination,
	}
}

func (s *service) Handler(maxUploadSize int64) *Handler {
	return NewHandler(s, s.logger, s.pagination, maxUploadSize)
}

// Create runs the intake sequence: pseudonymize the narrative, analyze
// attachments, extract and merge structured data, persist the incident with
// its documents and opening timeline event, then queue background
// processing. The caller receives the merged extraction with PII intact.
func (s *service) Create(ctx context.Context, cmd CreateCommand) (*CreateResponse, error) {
	if cmd.Story == "" {
		return nil, ErrMissingStory
	}
	if cmd.OwnerID == "" {
		return nil, ErrUnauthorized
	}

	pseudonymized, mapping := pii.Pseudonymize(cmd.Story)

	var agg *evidence.Aggregate
	if len(cmd.Attachments) > 0 {
		agg = s.evidence.Process(ctx, cmd.Attachments)
	}

	result, err := s.extractor.Extract(ctx, pseudonymized, agg)
	if err != nil {
		return nil, err
	}

	merged := extraction.Merge(result, extraction.FromEvidence(agg))

	incident, err := s.repo.Insert(ctx, cmd.OwnerID, pseudonymized, merged, mapping)
	if err != nil {
		return nil, err
	}

	for _, att := range cmd.Attachments {
		if _, err := s.repo.AttachDocument(ctx, incident.ID, att.Filename, att.ContentType, att.Data); err != nil {
			return nil, err
		}
	}

	err = s.repo.AppendEvent(ctx, incident.ID, EventIncidentCreated, map[string]any{
		"confidence":  merged.Confidence,
		"needs_human": merged.NeedsHuman,
	})
	if err != nil {
		return nil, err
	}

	queued := s.dispatcher.Submit(incident.ID)
	if !queued {
		s.logger.Warn("processing queue rejected incident", "id", incident.ID)
	}

	s.logger.Info(
		"incident created",
		"id", incident.ID,
		"owner", cmd.OwnerID,
		"attachments", len(cmd.Attachments),
		"confidence", merged.Confidence,
		"queued", queued,
	)

	return &CreateResponse{
		IncidentID:    incident.ID,
		Status:        StatusPending,
		ExtractedData: merged,
		Message:       createMessage(queued),
	}, nil
}

// createMessage reports intake outcome to the submitter. A rejected dispatch
// leaves the incident PENDING; the caller learns processing has not started.
func createMessage(queued bool) string {
	if queued {
		return "incident created and queued for processing"
	}
	return "incident created; processing queue is full and the incident remains pending"
}

// Find returns the owner's incident with PII restored into the story and
// extracted fields, plus documents and the chronological timeline.
func (s *service) Find(ctx context.Context, id uuid.UUID, ownerID string) (*Incident, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}

	incident, err := s.repo.FindOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	restore(incident)
	return incident, nil
}

func (s *service) List(
	ctx context.Context,
	ownerID string,
	page pagination.PageRequest,
) (*pagination.PageResult[Incident], error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}

	result, err := s.repo.List(ctx, ownerID, page)
	if err != nil {
		return nil, err
	}

	for i := range result.Data {
		restore(&result.Data[i])
	}
	return result, nil
}

// OpenDocument returns an attachment's metadata and a stream of its stored
// bytes, scoped to the incident owner.
func (s *service) OpenDocument(
	ctx context.Context,
	incidentID, docID uuid.UUID,
	ownerID string,
) (*Document, io.ReadCloser, error) {
	if ownerID == "" {
		return nil, nil, ErrUnauthorized
	}

	doc, err := s.repo.FindOwnedDocument(ctx, incidentID, docID, ownerID)
	if err != nil {
		return nil, nil, err
	}

	body, err := s.repo.OpenBlob(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return doc, body, nil
}

// restore replaces pseudonym tokens with the owner's original values.
func restore(incident *Incident) {
	if len(incident.PIIMapping) == 0 {
		return
	}

	incident.Story = pii.Restore(incident.Story, incident.PIIMapping)

	data := &incident.ExtractedData
	if data.IncidentType != nil {
		v := pii.Restore(*data.IncidentType, incident.PIIMapping)
		data.IncidentType = &v
	}
	if data.Location != nil {
		v := pii.Restore(*data.Location, incident.PIIMapping)
		data.Location = &v
	}
	if data.Date != nil {
		v := pii.Restore(*data.Date, incident.PIIMapping)
		data.Date = &v
	}
	for i, person := range data.PeopleInvolved {
		data.PeopleInvolved[i] = pii.Restore(person, incident.PIIMapping)
	}
}
