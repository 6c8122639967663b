package kyc

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mentordesk/mentordesk/internal/collection"
	"github.com/mentordesk/mentordesk/internal/query"
	"github.com/mentordesk/mentordesk/internal/seed"
	"github.com/mentordesk/mentordesk/internal/shared"
)

// ErrNoVerifiedDocument blocks a submission with nothing verified yet.
var ErrNoVerifiedDocument = fmt.Errorf("%w: at least one verified document is required", shared.ErrValidation)

// NewDocuments binds the documents collection.
func NewDocuments(env collection.Env) *collection.Collection[Doc] {
	return collection.Bind(env, DocumentsCollection, collection.Options[Doc]{
		ID:   func(d Doc) string { return d.ID },
		Seed: seed.Func[Doc]("kyc_documents"),
	})
}

// NewVerification binds the one-record verification collection.
func NewVerification(env collection.Env) *collection.Collection[Verification] {
	return collection.Bind(env, VerificationCollection, collection.Options[Verification]{
		ID: func(v Verification) string { return v.ID },
		Seed: func() []Verification {
			return []Verification{{ID: VerificationID, Status: VerificationNotStarted}}
		},
		Clone: func(v Verification) Verification {
			if v.SubmittedAt != nil {
				t := *v.SubmittedAt
				v.SubmittedAt = &t
			}
			if v.DecidedAt != nil {
				t := *v.DecidedAt
				v.DecidedAt = &t
			}
			return v
		},
	})
}

// UploadInput is a new document.
type UploadInput struct {
	Type     DocType
	FileName string
	Content  []byte
}

// Service implements the verification page.
type Service struct {
	docs         *collection.Collection[Doc]
	verification *collection.Collection[Verification]
	logger       *slog.Logger
	now          func() time.Time
}

// NewService constructs the service.
func NewService(docs *collection.Collection[Doc], verification *collection.Collection[Verification], logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docs: docs, verification: verification, logger: logger, now: time.Now}
}

// ListDocuments runs v over the documents.
func (s *Service) ListDocuments(ctx context.Context, v *query.View) (query.Page[Doc], string, error) {
	return s.docs.Query(ctx, v, Schema)
}

// GetDocument returns one document.
func (s *Service) GetDocument(ctx context.Context, id string) (Doc, bool, error) {
	return s.docs.Get(ctx, id)
}

// Upload inspects the payload and prepends a pending document.
func (s *Service) Upload(ctx context.Context, in UploadInput) (Doc, error) {
	verr := &shared.ValidationError{Fields: map[string]string{}}
	if !in.Type.IsValid() {
		verr.Fields["type"] = "unknown document type"
	}
	name := strings.TrimSpace(in.FileName)
	if name == "" {
		verr.Fields["file_name"] = "required"
	}
	if len(in.Content) == 0 {
		verr.Fields["file"] = "empty upload"
	}
	if len(verr.Fields) > 0 {
		return Doc{}, verr
	}
	info, err := Inspect(name, in.Content)
	if err != nil {
		return Doc{}, err
	}
	doc := Doc{
		ID:          collection.NewID("doc"),
		Type:        in.Type,
		FileName:    name,
		ContentType: info.ContentType,
		Status:      DocPending,
		UploadedAt:  s.now().UTC(),
		Pages:       info.Pages,
		SizeBytes:   int64(len(in.Content)),
	}
	if err := s.docs.Prepend(ctx, doc); err != nil {
		return Doc{}, err
	}
	s.logger.Info("kyc document uploaded",
		slog.String("id", doc.ID),
		slog.String("type", string(doc.Type)),
		slog.Int("pages", doc.Pages))
	return doc, nil
}

// MarkVerified moves a document to verified and clears its note.
func (s *Service) MarkVerified(ctx context.Context, id string) (bool, error) {
	return s.docs.Update(ctx, id, func(d *Doc) error {
		if err := DocTransitions.Check(string(d.Status), string(DocVerified)); err != nil {
			return err
		}
		d.Status = DocVerified
		d.Note = ""
		return nil
	})
}

// MarkRejected moves a document to rejected with a reviewer note.
func (s *Service) MarkRejected(ctx context.Context, id, note string) (bool, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return false, shared.NewValidationError("note", "required")
	}
	return s.docs.Update(ctx, id, func(d *Doc) error {
		if err := DocTransitions.Check(string(d.Status), string(DocRejected)); err != nil {
			return err
		}
		d.Status = DocRejected
		d.Note = note
		return nil
	})
}

// DeleteDocument removes a document.
func (s *Service) DeleteDocument(ctx context.Context, id string) (bool, error) {
	return s.docs.Delete(ctx, id)
}

// Verification returns the current request.
func (s *Service) Verification(ctx context.Context) (Verification, error) {
	v, ok, err := s.verification.Get(ctx, VerificationID)
	if err != nil {
		return Verification{}, err
	}
	if !ok {
		return Verification{ID: VerificationID, Status: VerificationNotStarted}, nil
	}
	return v, nil
}

// Submit sends the request for review. It needs a verified document.
func (s *Service) Submit(ctx context.Context) (Verification, error) {
	docs, err := s.docs.List(ctx)
	if err != nil {
		return Verification{}, err
	}
	verified := false
	for _, d := range docs {
		if d.Status == DocVerified {
			verified = true
			break
		}
	}
	if !verified {
		return Verification{}, ErrNoVerifiedDocument
	}
	return s.transition(ctx, VerificationPending, "")
}

// Decide approves or rejects a pending request.
func (s *Service) Decide(ctx context.Context, decision VerificationStatus, reason string) (Verification, error) {
	if decision != VerificationApproved && decision != VerificationRejected {
		return Verification{}, shared.NewValidationError("decision", "must be approved or rejected")
	}
	return s.transition(ctx, decision, strings.TrimSpace(reason))
}

func (s *Service) transition(ctx context.Context, to VerificationStatus, reason string) (Verification, error) {
	if _, err := s.Verification(ctx); err != nil {
		return Verification{}, err
	}
	now := s.now().UTC()
	apply := func(v *Verification) error {
		if err := VerificationTransitions.Check(string(v.Status), string(to)); err != nil {
			return err
		}
		v.Status = to
		v.Reason = reason
		if to == VerificationPending {
			v.SubmittedAt = &now
			v.DecidedAt = nil
		} else {
			v.DecidedAt = &now
		}
		return nil
	}
	ok, err := s.verification.Update(ctx, VerificationID, apply)
	if err != nil {
		return Verification{}, err
	}
	if !ok {
		v := Verification{ID: VerificationID, Status: VerificationNotStarted}
		if err := apply(&v); err != nil {
			return Verification{}, err
		}
		if err := s.verification.Append(ctx, v); err != nil {
			return Verification{}, err
		}
	}
	s.logger.Info("kyc verification changed", slog.String("status", string(to)))
	return s.Verification(ctx)
}
