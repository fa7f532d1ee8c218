package service

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"teambot/internal/model"
	"teambot/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// mockReceiptRepo is a mock implementation of repository.ReceiptRepository
type mockReceiptRepo struct {
	mu       sync.Mutex
	receipts []model.Receipt
	nextID   int64
}

func newMockReceiptRepo() *mockReceiptRepo {
	return &mockReceiptRepo{nextID: 1}
}

func (m *mockReceiptRepo) Create(ctx context.Context, receipt *model.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	receipt.ID = m.nextID
	m.nextID++
	m.receipts = append(m.receipts, *receipt)
	return nil
}

func (m *mockReceiptRepo) ListPending(ctx context.Context) ([]model.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Receipt
	for _, r := range m.receipts {
		if r.State == model.ReceiptPending {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockReceiptRepo) FetchImage(ctx context.Context, id int64) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.receipts {
		if r.ID == id {
			return r.Image, nil
		}
	}
	return nil, repository.ErrReceiptNotFound
}

func (m *mockReceiptRepo) SetDecision(ctx context.Context, id int64, state string, approverID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.receipts {
		if r.ID != id {
			continue
		}
		if r.State != model.ReceiptPending {
			return repository.ErrReceiptConflict
		}
		m.receipts[i].State = state
		m.receipts[i].ApproverID = &approverID
		return nil
	}
	return repository.ErrReceiptNotFound
}

func (m *mockReceiptRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Receipt, decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Receipt
	total := decimal.Zero
	for _, r := range m.receipts {
		if r.OwnerID == ownerID {
			out = append(out, r)
			total = total.Add(r.Amount)
		}
	}
	return out, total, nil
}

func (m *mockReceiptRepo) DeleteOwned(ctx context.Context, id int64, ownerID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.receipts {
		if r.ID == id && r.OwnerID == ownerID {
			m.receipts = append(m.receipts[:i], m.receipts[i+1:]...)
			return nil
		}
	}
	return repository.ErrReceiptNotFound
}

func (m *mockReceiptRepo) ListAll(ctx context.Context) ([]model.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Receipt, len(m.receipts))
	copy(out, m.receipts)
	return out, nil
}

var _ = Describe("ReceiptService", func() {
	var (
		repo  *mockReceiptRepo
		audit *mockAuditRepo
		svc   ReceiptService
		ctx   context.Context

		aliceID uuid.UUID
		bobID   uuid.UUID
	)

	amount := func(s string) decimal.Decimal {
		d, err := decimal.NewFromString(s)
		Expect(err).NotTo(HaveOccurred())
		return d
	}

	BeforeEach(func() {
		repo = newMockReceiptRepo()
		audit = &mockAuditRepo{}
		ctx = context.Background()
		aliceID = uuid.New()
		bobID = uuid.New()
		svc = NewReceiptService(repo, audit, &mockTxManager{})
	})

	Describe("CreateReceipt", func() {
		It("stores a pending receipt and writes an audit entry", func() {
			resp, err := svc.CreateReceipt(ctx, aliceID, CreateReceiptRequest{
				Amount:      amount("12.50"),
				Description: "fuel",
				Image:       []byte("jpeg"),
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.State).To(Equal(model.ReceiptPending))
			Expect(resp.Amount).To(Equal("12.50"))
			Expect(repo.receipts).To(HaveLen(1))
			Expect(repo.receipts[0].OwnerID).To(Equal(aliceID))

			Expect(audit.count()).To(Equal(1))
			Expect(audit.entries[0].Action).To(Equal(model.ActionCreateReceipt))
		})

		It("rounds the amount to two decimals", func() {
			resp, err := svc.CreateReceipt(ctx, aliceID, CreateReceiptRequest{
				Amount:      amount("12.499"),
				Description: "fuel",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Amount).To(Equal("12.50"))
		})

		It("rejects a non-positive amount", func() {
			_, err := svc.CreateReceipt(ctx, aliceID, CreateReceiptRequest{
				Amount:      amount("0"),
				Description: "nothing",
			})

			Expect(err).To(MatchError("amount must be positive"))
			Expect(repo.receipts).To(BeEmpty())
			Expect(audit.count()).To(BeZero())
		})
	})

	Describe("ListOwn", func() {
		It("returns only the caller's receipts with their total", func() {
			_, err := svc.CreateReceipt(ctx, aliceID, CreateReceiptRequest{Amount: amount("10.00"), Description: "a"})
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.CreateReceipt(ctx, aliceID, CreateReceiptRequest{Amount: amount("2.50"), Description: "b"})
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.CreateReceipt(ctx, bobID, CreateReceiptRequest{Amount: amount("99.00"), Description: "c"})
			Expect(err).NotTo(HaveOccurred())

			resp, err := svc.ListOwn(ctx, aliceID)

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Receipts).To(HaveLen(2))
			Expect(resp.Total).To(Equal("12.50"))
		})

		It("returns an empty list and a zero total for a new member", func() {
			resp, err := svc.ListOwn(ctx, aliceID)

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Receipts).To(BeEmpty())
			Expect(resp.Total).To(Equal("0.00"))
		})
	})

	Describe("DeleteOwn", func() {
		It("removes the caller's receipt and audits the deletion", func() {
			created, err := svc.CreateReceipt(ctx, aliceID, CreateReceiptRequest{Amount: amount("10.00"), Description: "a"})
			Expect(err).NotTo(HaveOccurred())

			Expect(svc.DeleteOwn(ctx, created.ID, aliceID)).To(Succeed())
			Expect(repo.receipts).To(BeEmpty())
			Expect(audit.count()).To(Equal(2))
			Expect(audit.entries[1].Action).To(Equal(model.ActionDeleteReceipt))
		})

		It("refuses to delete someone else's receipt", func() {
			created, err := svc.CreateReceipt(ctx, aliceID, CreateReceiptRequest{Amount: amount("10.00"), Description: "a"})
			Expect(err).NotTo(HaveOccurred())

			err = svc.DeleteOwn(ctx, created.ID, bobID)

			Expect(err).To(MatchError(repository.ErrReceiptNotFound))
			Expect(repo.receipts).To(HaveLen(1))
		})
	})

	Describe("Summary", func() {
		It("groups receipts by owner with per-member and grand totals", func() {
			alice := &model.User{ID: aliceID, Username: "alice", FirstName: "Alice", LastName: "Martin"}
			bob := &model.User{ID: bobID, Username: "bob", FirstName: "Bob", LastName: "Stone"}
			repo.receipts = []model.Receipt{
				{ID: 1, OwnerID: aliceID, Owner: alice, Amount: amount("10.00"), State: model.ReceiptAccepted},
				{ID: 2, OwnerID: bobID, Owner: bob, Amount: amount("5.00"), State: model.ReceiptPending},
				{ID: 3, OwnerID: aliceID, Owner: alice, Amount: amount("2.50"), State: model.ReceiptPending},
			}
			repo.nextID = 4

			resp, err := svc.Summary(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Users).To(HaveLen(2))
			Expect(resp.Users[0].Username).To(Equal("alice"))
			Expect(resp.Users[0].Receipts).To(HaveLen(2))
			Expect(resp.Users[0].Total).To(Equal("12.50"))
			Expect(resp.Users[1].Username).To(Equal("bob"))
			Expect(resp.Users[1].Total).To(Equal("5.00"))
			Expect(resp.GrandTotal).To(Equal("17.50"))
		})

		It("returns an empty summary when no receipts exist", func() {
			resp, err := svc.Summary(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Users).To(BeEmpty())
			Expect(resp.GrandTotal).To(Equal("0.00"))
		})
	})
})
