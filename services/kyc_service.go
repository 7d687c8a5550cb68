// services/kyc_service.go
package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tournament-wallet-service/apperrors"
	"tournament-wallet-service/metrics"
	"tournament-wallet-service/models"
	"tournament-wallet-service/store"
	"tournament-wallet-service/utils"

	"github.com/google/uuid"
	"github.com/gosimple/unidecode"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
)

// ObjectStore persists uploaded binaries and returns their public URL.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type KycStore interface {
	store.UserStore
	store.KycStore
}

var (
	defaultDocuments = []models.DocumentType{models.DocPassport, models.DocNationalID, models.DocDriversLicense}

	requiredDocuments = map[string][]models.DocumentType{
		"india":         {models.DocAadhaarCard, models.DocPANCard, models.DocDrivingLicense},
		"nigeria":       {models.DocNINSlip, models.DocVotersCard, models.DocInternationalPassport},
		"united states": {models.DocPassport, models.DocDriversLicense, models.DocStateID},
	}

	countryAliases = map[string]string{
		"in":                       "india",
		"ng":                       "nigeria",
		"us":                       "united states",
		"usa":                      "united states",
		"united states of america": "united states",
	}

	folder = cases.Fold()
)

// normalizeKey folds case, strips accents and collapses whitespace.
func normalizeKey(s string) string {
	return strings.Join(strings.Fields(folder.String(unidecode.Unidecode(s))), " ")
}

// RequiredDocuments lists the document types accepted for a country; unknown countries get the default set.
func RequiredDocuments(country string) []models.DocumentType {
	key := normalizeKey(country)
	if alias, ok := countryAliases[key]; ok {
		key = alias
	}
	docs, ok := requiredDocuments[key]
	if !ok {
		docs = defaultDocuments
	}
	out := make([]models.DocumentType, len(docs))
	copy(out, docs)
	return out
}

// matchDocumentType returns the canonical spelling of t if the country accepts it.
func matchDocumentType(country string, t models.DocumentType) (models.DocumentType, bool) {
	want := normalizeKey(string(t))
	for _, d := range RequiredDocuments(country) {
		if normalizeKey(string(d)) == want {
			return d, true
		}
	}
	return "", false
}

// AggregateKycStatus derives a user's status from their documents.
func AggregateKycStatus(docs []models.KycDocument) models.KycStatus {
	if len(docs) == 0 {
		return models.KycNotSubmitted
	}
	pending := false
	for _, d := range docs {
		switch d.Status {
		case models.DocumentApproved:
			return models.KycApproved
		case models.DocumentPending:
			pending = true
		}
	}
	if pending {
		return models.KycPending
	}
	return models.KycRejected
}

type KycService struct {
	Store   KycStore
	Objects ObjectStore // nil keeps image URLs as given

	locks *keyedMutex
	now   func() time.Time
	log   *logrus.Entry
}

func NewKycService(st KycStore, objects ObjectStore) *KycService {
	return &KycService{
		Store:   st,
		Objects: objects,
		locks:   newKeyedMutex(),
		now:     time.Now,
		log:     utils.Component("kyc"),
	}
}

// Submit opens a new pending document and moves the user to pending.
func (s *KycService) Submit(ctx context.Context, userID uint, sub models.KycSubmission) (doc *models.KycDocument, err error) {
	defer func() { metrics.RecordKycSubmission(err) }()

	number := strings.TrimSpace(sub.DocumentNumber)
	if number == "" {
		return nil, apperrors.Validation("document number is required")
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	user, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.KycStatus == models.KycApproved {
		return nil, apperrors.Validation("user %d is already verified", userID)
	}
	docType, ok := matchDocumentType(user.Country, sub.Type)
	if !ok {
		return nil, apperrors.Validation("document type %q is not accepted for %q; expected one of %v",
			sub.Type, user.Country, RequiredDocuments(user.Country))
	}

	front, err := s.storeImage(ctx, userID, "front", sub.FrontImage, sub.FrontImageURL)
	if err != nil {
		return nil, err
	}
	back, err := s.storeImage(ctx, userID, "back", sub.BackImage, sub.BackImageURL)
	if err != nil {
		return nil, err
	}

	doc = &models.KycDocument{
		UserID:         userID,
		Type:           docType,
		DocumentNumber: number,
		FrontImageURL:  front,
		BackImageURL:   back,
		Status:         models.DocumentPending,
	}
	if err := s.Store.CreateDocument(ctx, doc, models.KycPending); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "document_id": doc.ID, "type": docType}).Info("📄 kyc document submitted")
	return doc, nil
}

func (s *KycService) storeImage(ctx context.Context, userID uint, side string, data []byte, fallbackURL string) (string, error) {
	if len(data) == 0 || s.Objects == nil {
		return strings.TrimSpace(fallbackURL), nil
	}
	key := fmt.Sprintf("kyc/%d/%s-%s", userID, side, uuid.NewString())
	url, err := s.Objects.Put(ctx, key, data, http.DetectContentType(data))
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindExternalService, err, "failed to store %s image", side)
	}
	return url, nil
}

func (s *KycService) Status(ctx context.Context, userID uint) (models.KycStatus, error) {
	user, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.KycStatus, nil
}

func (s *KycService) Documents(ctx context.Context, userID uint) ([]models.KycDocument, error) {
	if _, err := s.Store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	docs, err := s.Store.Documents(ctx, userID)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []models.KycDocument{}
	}
	return docs, nil
}

// Review records an admin decision on a pending document and recomputes the owner's status.
func (s *KycService) Review(ctx context.Context, documentID uint, decision models.ReviewDecision, reason, reviewer string) (*models.KycDocument, error) {
	reason = strings.TrimSpace(reason)
	var next models.DocumentStatus
	switch decision {
	case models.ReviewApprove:
		next = models.DocumentApproved
		reason = ""
	case models.ReviewReject:
		next = models.DocumentRejected
		if reason == "" {
			return nil, apperrors.Validation("a rejection reason is required")
		}
	default:
		return nil, apperrors.Validation("decision must be approve or reject")
	}

	doc, err := s.Store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(doc.UserID)
	defer unlock()

	docs, err := s.Store.Documents(ctx, doc.UserID)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		if docs[i].ID == documentID {
			doc = &docs[i]
		}
	}
	if doc.Status != models.DocumentPending {
		return nil, apperrors.Validation("kyc document %d already %s", documentID, doc.Status)
	}

	reviewedAt := s.now()
	doc.Status = next
	doc.RejectionReason = reason
	doc.ReviewedBy = reviewer
	doc.ReviewedAt = &reviewedAt

	status := AggregateKycStatus(docs)
	if err := s.Store.SaveReview(ctx, doc, status); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"document_id": documentID,
		"decision":    decision,
		"user_status": status,
	}).Info("🛂 kyc document reviewed")
	return doc, nil
}
