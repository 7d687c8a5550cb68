package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"tournament-wallet-service/apperrors"
	"tournament-wallet-service/models"
)

// MemoryStore is a thread-safe in-memory Store. All writes go through one lock,
// which gives every multi-step operation the same all-or-nothing behaviour as a DB transaction.
type MemoryStore struct {
	mu sync.RWMutex

	users        map[uint]*models.User
	externalIdx  map[string]uint
	transactions []models.WalletTransaction
	documents    []models.KycDocument
	tournaments  []models.Tournament
	matches      []models.Match

	nextUserID       uint
	nextTxID         uint
	nextDocumentID   uint
	nextTournamentID uint
	nextMatchID      uint

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[uint]*models.User),
		externalIdx: make(map[string]uint),
		now:         time.Now,
	}
}

// ---- users ----

func (s *MemoryStore) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createUserLocked(u)
}

func (s *MemoryStore) createUserLocked(u *models.User) error {
	if u.ExternalUserID != "" {
		if _, exists := s.externalIdx[u.ExternalUserID]; exists {
			return apperrors.Validation("user %s already exists", u.ExternalUserID)
		}
	}
	s.nextUserID++
	u.ID = s.nextUserID
	if u.KycStatus == "" {
		u.KycStatus = models.KycNotSubmitted
	}
	if u.Currency == "" {
		u.Currency = models.CurrencyUSD
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
	cp := *u
	s.users[u.ID] = &cp
	if u.ExternalUserID != "" {
		s.externalIdx[u.ExternalUserID] = u.ID
	}
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NotFound("user %d not found", id)
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.externalIdx[externalID]
	if !ok {
		return nil, apperrors.NotFound("user %q not found", externalID)
	}
	cp := *s.users[id]
	return &cp, nil
}

func (s *MemoryStore) UpdateUser(ctx context.Context, id uint, patch models.UserUpdate) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NotFound("user %d not found", id)
	}
	patch.Apply(u)
	u.UpdatedAt = s.now()
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) UpsertUserByExternalID(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.Currency == "" {
		u.Currency = models.CurrencyUSD
	}
	id, exists := s.externalIdx[u.ExternalUserID]
	if !exists {
		return s.createUserLocked(u)
	}
	existing := s.users[id]
	existing.Username = u.Username
	existing.Email = u.Email
	existing.Currency = u.Currency
	existing.Country = u.Country
	existing.GameMode = u.GameMode
	existing.ProfileSyncedAt = u.ProfileSyncedAt
	existing.UpdatedAt = s.now()
	u.ID = id
	u.KycStatus = existing.KycStatus
	return nil
}

func (s *MemoryStore) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := strings.ToLower(strings.TrimSpace(query))
	out := []models.User{}
	for _, u := range s.users {
		if q == "" || strings.Contains(strings.ToLower(u.Username), q) || strings.Contains(strings.ToLower(u.Email), q) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// LatestUserUpdate is the newest mirrored profile timestamp, used as the sync cursor.
func (s *MemoryStore) LatestUserUpdate(ctx context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest time.Time
	for _, u := range s.users {
		if u.ProfileSyncedAt != nil && u.ProfileSyncedAt.After(latest) {
			latest = *u.ProfileSyncedAt
		}
	}
	return latest, nil
}

// ---- ledger ----

func (s *MemoryStore) AppendTransaction(ctx context.Context, tx *models.WalletTransaction) error {
	return s.AppendChecked(ctx, tx, nil)
}

func (s *MemoryStore) AppendChecked(ctx context.Context, tx *models.WalletTransaction, check HistoryCheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[tx.UserID]; !ok {
		return apperrors.NotFound("user %d not found", tx.UserID)
	}
	if check != nil {
		if err := check(s.historyLocked(tx.UserID)); err != nil {
			return err
		}
	}
	// A caller that gave up must not leave a line behind.
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.KindExternalService, err, "ledger append aborted")
	}
	s.appendLocked(tx)
	return nil
}

func (s *MemoryStore) appendLocked(tx *models.WalletTransaction) {
	s.nextTxID++
	tx.ID = s.nextTxID
	tx.CreatedAt = s.now()
	s.transactions = append(s.transactions, *tx)
}

func (s *MemoryStore) historyLocked(userID uint) []models.WalletTransaction {
	var out []models.WalletTransaction
	for _, t := range s.transactions {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

func (s *MemoryStore) Transactions(ctx context.Context, userID uint) ([]models.WalletTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.historyLocked(userID), nil
}

func (s *MemoryStore) GetTransaction(ctx context.Context, id uint) (*models.WalletTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.transactions {
		if t.ID == id {
			cp := t
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("transaction %d not found", id)
}

func (s *MemoryStore) PendingWithdrawals(ctx context.Context) ([]models.WalletTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	settled := map[uint]bool{}
	for _, t := range s.transactions {
		if t.SettlesID != nil {
			settled[*t.SettlesID] = true
		}
	}
	var out []models.WalletTransaction
	for _, t := range s.transactions {
		if t.Type == models.TransactionWithdrawal && t.Status == models.TransactionPending &&
			t.SettlesID == nil && !settled[t.ID] {
			out = append(out, t)
		}
	}
	return out, nil
}

// ---- kyc ----

func (s *MemoryStore) CreateDocument(ctx context.Context, doc *models.KycDocument, userStatus models.KycStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[doc.UserID]
	if !ok {
		return apperrors.NotFound("user %d not found", doc.UserID)
	}
	s.nextDocumentID++
	doc.ID = s.nextDocumentID
	doc.CreatedAt = s.now()
	doc.UpdatedAt = doc.CreatedAt
	s.documents = append(s.documents, *doc)
	u.KycStatus = userStatus
	u.UpdatedAt = doc.CreatedAt
	return nil
}

func (s *MemoryStore) GetDocument(ctx context.Context, id uint) (*models.KycDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.documents {
		if d.ID == id {
			cp := d
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("kyc document %d not found", id)
}

func (s *MemoryStore) Documents(ctx context.Context, userID uint) ([]models.KycDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.KycDocument
	for _, d := range s.documents {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *MemoryStore) SaveReview(ctx context.Context, doc *models.KycDocument, userStatus models.KycStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.documents {
		if s.documents[i].ID != doc.ID {
			continue
		}
		if s.documents[i].Status != models.DocumentPending {
			return apperrors.Validation("kyc document %d already %s", doc.ID, s.documents[i].Status)
		}
		doc.UpdatedAt = s.now()
		s.documents[i] = *doc
		if u, ok := s.users[doc.UserID]; ok {
			u.KycStatus = userStatus
			u.UpdatedAt = doc.UpdatedAt
		}
		return nil
	}
	return apperrors.NotFound("kyc document %d not found", doc.ID)
}

// ---- tournaments ----

func (s *MemoryStore) CreateTournament(ctx context.Context, t *models.Tournament) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.tournaments {
		if existing.Slug == t.Slug {
			return apperrors.Validation("tournament slug %q already taken", t.Slug)
		}
	}
	s.nextTournamentID++
	t.ID = s.nextTournamentID
	t.CreatedAt = s.now()
	t.UpdatedAt = t.CreatedAt
	s.tournaments = append(s.tournaments, *t)
	return nil
}

func (s *MemoryStore) tournamentIndexLocked(id uint) int {
	for i := range s.tournaments {
		if s.tournaments[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) GetTournament(ctx context.Context, id uint) (*models.Tournament, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.tournamentIndexLocked(id)
	if i < 0 {
		return nil, apperrors.NotFound("tournament %d not found", id)
	}
	cp := s.tournaments[i]
	return &cp, nil
}

func (s *MemoryStore) ListTournaments(ctx context.Context, status models.TournamentStatus) ([]models.Tournament, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Tournament
	for _, t := range s.tournaments {
		if status == "" || t.Status == status {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *MemoryStore) SetTournamentStatus(ctx context.Context, id uint, allowed []models.TournamentStatus, next models.TournamentStatus) (*models.Tournament, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.tournamentIndexLocked(id)
	if i < 0 {
		return nil, apperrors.NotFound("tournament %d not found", id)
	}
	t := &s.tournaments[i]
	if !containsStatus(allowed, t.Status) {
		return nil, apperrors.Validation("tournament %d cannot move from %s to %s", id, t.Status, next)
	}
	t.Status = next
	t.UpdatedAt = s.now()
	mirrored := models.MatchStatusFor(next)
	for j := range s.matches {
		if s.matches[j].TournamentID == id {
			s.matches[j].Status = mirrored
			s.matches[j].UpdatedAt = t.UpdatedAt
		}
	}
	cp := *t
	return &cp, nil
}

func (s *MemoryStore) RegisterPlayer(ctx context.Context, reg Registration) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.tournamentIndexLocked(reg.TournamentID)
	if i < 0 {
		return nil, apperrors.NotFound("tournament %d not found", reg.TournamentID)
	}
	if _, ok := s.users[reg.UserID]; !ok {
		return nil, apperrors.NotFound("user %d not found", reg.UserID)
	}
	t := &s.tournaments[i]
	if reg.Admit != nil {
		if err := reg.Admit(*t); err != nil {
			return nil, err
		}
	}
	for _, m := range s.matches {
		if m.TournamentID == reg.TournamentID && m.UserID == reg.UserID {
			return nil, apperrors.New(apperrors.KindAlreadyRegistered, "user %d already registered for tournament %d", reg.UserID, reg.TournamentID)
		}
	}
	if t.IsFull() {
		return nil, apperrors.New(apperrors.KindTournamentFull, "tournament %d is full (%d/%d)", t.ID, t.RegisteredPlayers, t.MaxPlayers)
	}

	var fee *models.WalletTransaction
	if reg.EntryFee != nil {
		fee = reg.EntryFee(*t)
	}
	if fee != nil && reg.FundsCheck != nil {
		if err := reg.FundsCheck(s.historyLocked(reg.UserID)); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "registration aborted")
	}

	// Every check passed; from here on nothing can fail.
	if fee != nil {
		s.appendLocked(fee)
	}
	t.RegisteredPlayers++
	t.UpdatedAt = s.now()

	m := reg.Match(*t)
	s.nextMatchID++
	m.ID = s.nextMatchID
	m.CreatedAt = s.now()
	m.UpdatedAt = m.CreatedAt
	s.matches = append(s.matches, *m)
	cp := *m
	return &cp, nil
}

// ---- matches ----

func (s *MemoryStore) matchIndexLocked(id uint) int {
	for i := range s.matches {
		if s.matches[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) GetMatch(ctx context.Context, id uint) (*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.matchIndexLocked(id)
	if i < 0 {
		return nil, apperrors.NotFound("match %d not found", id)
	}
	cp := cloneMatch(s.matches[i])
	return &cp, nil
}

// cloneMatch copies m including the values behind its pointer fields.
func cloneMatch(m models.Match) models.Match {
	if m.Position != nil {
		v := *m.Position
		m.Position = &v
	}
	if m.Kills != nil {
		v := *m.Kills
		m.Kills = &v
	}
	if m.SubmittedAt != nil {
		v := *m.SubmittedAt
		m.SubmittedAt = &v
	}
	return m
}

func (s *MemoryStore) MatchesForUser(ctx context.Context, userID uint) ([]models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Match
	for _, m := range s.matches {
		if m.UserID == userID {
			out = append(out, cloneMatch(m))
		}
	}
	return out, nil
}

func (s *MemoryStore) SubmitResult(ctx context.Context, id uint, sub models.ResultSubmission, at time.Time) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.matchIndexLocked(id)
	if i < 0 {
		return nil, apperrors.NotFound("match %d not found", id)
	}
	m := &s.matches[i]
	if m.ResultSubmitted {
		return nil, apperrors.New(apperrors.KindAlreadySubmitted, "result for match %d already submitted", id)
	}
	position, kills := sub.Position, sub.Kills
	m.Position = &position
	m.Kills = &kills
	m.Result = sub.Result
	m.Screenshot = sub.Screenshot
	m.ResultSubmitted = true
	m.SubmittedAt = &at
	m.UpdatedAt = s.now()
	cp := cloneMatch(*m)
	return &cp, nil
}

func (s *MemoryStore) ApproveResult(ctx context.Context, id uint, prize int64) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.matchIndexLocked(id)
	if i < 0 {
		return nil, apperrors.NotFound("match %d not found", id)
	}
	m := &s.matches[i]
	if !m.ResultSubmitted {
		return nil, apperrors.Validation("match %d has no submitted result", id)
	}
	if m.ResultApproved {
		return nil, apperrors.Validation("result for match %d already approved", id)
	}
	m.ResultApproved = true
	m.Prize = prize
	m.UpdatedAt = s.now()
	cp := cloneMatch(*m)
	return &cp, nil
}

var _ Store = (*MemoryStore)(nil)
