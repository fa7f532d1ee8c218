package service

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"teambot/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// mockStockRepo is a mock implementation of repository.StockRepository
type mockStockRepo struct {
	mu        sync.Mutex
	items     map[int64]*model.StockItem
	order     []int64
	movements []model.StockMovement
	listErr   error
	getErr    error
}

func newMockStockRepo() *mockStockRepo {
	return &mockStockRepo{items: make(map[int64]*model.StockItem)}
}

func (m *mockStockRepo) add(item *model.StockItem) {
	m.items[item.ID] = item
	m.order = append(m.order, item.ID)
}

func (m *mockStockRepo) ListInStock(ctx context.Context) ([]model.StockItem, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []model.StockItem
	for _, id := range m.order {
		if m.items[id].Quantity > 0 {
			out = append(out, *m.items[id])
		}
	}
	return out, nil
}

func (m *mockStockRepo) GetByID(ctx context.Context, id int64) (*model.StockItem, error) {
	return m.GetByIDForUpdate(ctx, id)
}

func (m *mockStockRepo) GetByIDForUpdate(ctx context.Context, id int64) (*model.StockItem, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *item
	return &cp, nil
}

func (m *mockStockRepo) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return errors.New("record not found")
	}
	item.Quantity = quantity
	return nil
}

func (m *mockStockRepo) CreateMovement(ctx context.Context, movement *model.StockMovement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.movements = append(m.movements, *movement)
	return nil
}

func stockItem(id int64, item, size string, quantity int, price string) *model.StockItem {
	p, err := decimal.NewFromString(price)
	Expect(err).NotTo(HaveOccurred())
	return &model.StockItem{ID: id, Item: item, Size: size, Quantity: quantity, Price: p}
}

var _ = Describe("InventoryService", func() {
	var (
		stock  *mockStockRepo
		users  *mockUserRepo
		audit  *mockAuditRepo
		mail   *mockMailer
		svc    InventoryService
		ctx    context.Context
		buyer  *model.User
		buyerI uuid.UUID
	)

	BeforeEach(func() {
		stock = newMockStockRepo()
		users = newMockUserRepo()
		audit = &mockAuditRepo{}
		mail = &mockMailer{}
		ctx = context.Background()

		buyerI = uuid.New()
		buyer = &model.User{ID: buyerI, Username: "alice", FirstName: "Alice", LastName: "Martin", Email: "alice@example.com", Role: model.RoleMember}
		users.add(buyer)

		svc = NewInventoryService(stock, users, audit, &mockTxManager{}, mail)
	})

	Describe("ListStock", func() {
		It("groups consecutive sizes of the same item and price", func() {
			stock.add(stockItem(1, "Hoodie", "M", 3, "35.00"))
			stock.add(stockItem(2, "Hoodie", "L", 1, "35.00"))
			stock.add(stockItem(3, "T-shirt", "M", 5, "15.00"))

			groups, err := svc.ListStock(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(groups).To(HaveLen(2))
			Expect(groups[0].Item).To(Equal("Hoodie"))
			Expect(groups[0].Price).To(Equal("35.00"))
			Expect(groups[0].Variants).To(HaveLen(2))
			Expect(groups[1].Item).To(Equal("T-shirt"))
		})

		It("merges same-priced sizes even when a differently priced size sits between them", func() {
			stock.add(stockItem(1, "Hoodie", "L", 2, "35.00"))
			stock.add(stockItem(2, "Hoodie", "M", 4, "30.00"))
			stock.add(stockItem(3, "Hoodie", "S", 1, "35.00"))

			groups, err := svc.ListStock(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(groups).To(HaveLen(2))
			Expect(groups[0].Price).To(Equal("35.00"))
			Expect(groups[0].Variants).To(HaveLen(2))
			Expect(groups[0].Variants[0].Size).To(Equal("L"))
			Expect(groups[0].Variants[1].Size).To(Equal("S"))
			Expect(groups[1].Price).To(Equal("30.00"))
			Expect(groups[1].Variants).To(HaveLen(1))
		})

		It("splits the same item into separate groups when prices differ", func() {
			stock.add(stockItem(1, "Hoodie", "M", 3, "35.00"))
			stock.add(stockItem(2, "Hoodie", "L", 1, "40.00"))

			groups, err := svc.ListStock(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(groups).To(HaveLen(2))
		})

		It("omits sold-out variants", func() {
			stock.add(stockItem(1, "Hoodie", "M", 0, "35.00"))

			groups, err := svc.ListStock(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(groups).To(BeEmpty())
		})
	})

	Describe("Purchase", func() {
		BeforeEach(func() {
			stock.add(stockItem(1, "Hoodie", "M", 3, "35.00"))
		})

		It("decrements stock and records the movement and audit entry", func() {
			resp, err := svc.Purchase(ctx, 1, buyerI, 2)

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Item).To(Equal("Hoodie"))
			Expect(resp.Total).To(Equal("70.00"))
			Expect(stock.items[1].Quantity).To(Equal(1))

			Expect(stock.movements).To(HaveLen(1))
			Expect(stock.movements[0].QuantityChanged).To(Equal(-2))
			Expect(stock.movements[0].StockAfter).To(Equal(1))
			Expect(stock.movements[0].BuyerID).To(Equal(buyerI))

			Expect(audit.count()).To(Equal(1))
			Expect(audit.entries[0].Action).To(Equal(model.ActionPurchaseItem))
		})

		It("emails a purchase report to the buyer", func() {
			_, err := svc.Purchase(ctx, 1, buyerI, 1)

			Expect(err).NotTo(HaveOccurred())
			Eventually(mail.sentCount, time.Second).Should(Equal(1))
			mail.mu.Lock()
			defer mail.mu.Unlock()
			Expect(mail.sent[0].to).To(ContainElement("alice@example.com"))
			Expect(mail.sent[0].body).To(ContainSubstring("Hoodie"))
			Expect(mail.sent[0].body).To(ContainSubstring("Total: 35.00"))
		})

		It("refuses to oversell", func() {
			_, err := svc.Purchase(ctx, 1, buyerI, 4)

			Expect(err).To(MatchError(ErrInsufficientStock))
			Expect(stock.items[1].Quantity).To(Equal(3))
			Expect(stock.movements).To(BeEmpty())
			Expect(audit.count()).To(BeZero())
		})

		It("rejects an unknown item", func() {
			_, err := svc.Purchase(ctx, 99, buyerI, 1)

			Expect(err).To(MatchError("item not found"))
		})

		It("surfaces a database failure instead of calling it not found", func() {
			stock.getErr = errors.New("connection reset")

			_, err := svc.Purchase(ctx, 1, buyerI, 1)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).NotTo(Equal("item not found"))
			Expect(err.Error()).To(ContainSubstring("connection reset"))
		})

		It("still succeeds when the report email fails", func() {
			mail.sendErr = errors.New("smtp down")

			resp, err := svc.Purchase(ctx, 1, buyerI, 1)

			Expect(err).NotTo(HaveOccurred())
			Expect(resp).NotTo(BeNil())
			Expect(stock.items[1].Quantity).To(Equal(2))
		})
	})
})
