package payments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"circlepay-server/src/models"
)

// fakeStore is an in-memory Store for exercising the payment workflow without
// a database. Subscriptions dispatch synchronously from the mutating call.
type fakeStore struct {
	mu      sync.Mutex
	nextTx  int
	nextSub int
	txs     []models.Transaction
	circles map[string]models.Circle
	subs    map[int64]map[int]func([]models.Transaction)

	createErr error
	spendErr  error

	releases map[int]int // sub id -> release call count
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		circles:  make(map[string]models.Circle),
		subs:     make(map[int64]map[int]func([]models.Transaction)),
		releases: make(map[int]int),
	}
}

func (s *fakeStore) addCircle(c models.Circle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.circles[c.ID] = c
}

func (s *fakeStore) circleState(id string) models.Circle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.circles[id]
}

func (s *fakeStore) CreateTransaction(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	s.mu.Lock()
	if s.createErr != nil {
		err := s.createErr
		s.mu.Unlock()
		return nil, err
	}
	s.nextTx++
	created := *tx
	created.ID = fmt.Sprintf("tx-%d", s.nextTx)
	created.CreatedAt = time.Now()
	s.txs = append([]models.Transaction{created}, s.txs...)
	userID := created.FromUserID
	s.mu.Unlock()

	s.notify(userID)
	return &created, nil
}

func (s *fakeStore) TransactionsForUser(ctx context.Context, userID int64) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(userID), nil
}

func (s *fakeStore) snapshotLocked(userID int64) []models.Transaction {
	var out []models.Transaction
	for _, tx := range s.txs {
		if tx.FromUserID == userID {
			out = append(out, tx)
		}
	}
	return out
}

func (s *fakeStore) UpdateTransactionStatus(ctx context.Context, transactionID, status string) (*models.Transaction, error) {
	s.mu.Lock()
	for i := range s.txs {
		if s.txs[i].ID != transactionID {
			continue
		}
		if s.txs[i].Status != models.StatusPending {
			s.mu.Unlock()
			return nil, ErrInvalidTransition
		}
		s.txs[i].Status = status
		updated := s.txs[i]
		s.mu.Unlock()
		s.notify(updated.FromUserID)
		return &updated, nil
	}
	s.mu.Unlock()
	return nil, ErrTransactionNotFound
}

func (s *fakeStore) SubscribeTransactions(userID int64, fn func([]models.Transaction)) (func(), error) {
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	if s.subs[userID] == nil {
		s.subs[userID] = make(map[int]func([]models.Transaction))
	}
	s.subs[userID][id] = fn
	initial := s.snapshotLocked(userID)
	s.mu.Unlock()

	fn(initial)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.releases[id]++
		delete(s.subs[userID], id)
	}, nil
}

func (s *fakeStore) notify(userID int64) {
	s.mu.Lock()
	snapshot := s.snapshotLocked(userID)
	fns := make([]func([]models.Transaction), 0, len(s.subs[userID]))
	for _, fn := range s.subs[userID] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}

func (s *fakeStore) Circle(ctx context.Context, circleID string) (*models.Circle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.circles[circleID]
	if !ok {
		return nil, ErrCircleNotFound
	}
	return &c, nil
}

func (s *fakeStore) UpdateCircleSpend(ctx context.Context, circleID string, dailyDelta, monthlyDelta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spendErr != nil {
		return s.spendErr
	}
	c, ok := s.circles[circleID]
	if !ok {
		return ErrCircleNotFound
	}
	c.CurrentDailySpent += dailyDelta
	c.CurrentMonthlySpent += monthlyDelta
	s.circles[circleID] = c
	return nil
}

func (s *fakeStore) ResetCircleSpend(ctx context.Context, circleID string, daily, monthly bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.circles[circleID]
	if !ok {
		return ErrCircleNotFound
	}
	if daily {
		c.CurrentDailySpent = 0
	}
	if monthly {
		c.CurrentMonthlySpent = 0
	}
	s.circles[circleID] = c
	return nil
}

var errStorageDown = errors.New("storage unavailable")
