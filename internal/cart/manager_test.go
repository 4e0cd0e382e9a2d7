package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"trolley/internal/cart/snapshot"
	"trolley/pkg/domain"
)

type failingStore struct{}

func (failingStore) Load(ctx context.Context, id domain.CartID) (*snapshot.Snapshot, error) {
	return nil, errors.New("store is down")
}

func (failingStore) Save(ctx context.Context, id domain.CartID, snap *snapshot.Snapshot) error {
	return errors.New("store is down")
}

type ManagerSuite struct {
	suite.Suite
	ctx   context.Context
	store *snapshot.MemoryStore
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = snapshot.NewMemory()
}

func (s *ManagerSuite) TestGetReturnsSameCartForSameID() {
	m := NewManager(s.store, nil, nil)
	id := domain.NewCartID()

	first, err := m.Get(s.ctx, id)
	s.Require().NoError(err)
	second, err := m.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Same(first, second)

	other, err := m.Get(s.ctx, domain.NewCartID())
	s.Require().NoError(err)
	s.NotSame(first, other)
}

func (s *ManagerSuite) TestGetRejectsNilID() {
	m := NewManager(s.store, nil, nil)
	_, err := m.Get(s.ctx, domain.CartID{})
	s.Error(err)
}

func (s *ManagerSuite) TestRestoresFromSnapshot() {
	id := domain.NewCartID()
	err := s.store.Save(s.ctx, id, &snapshot.Snapshot{
		Items: []snapshot.Item{
			{ProductID: "sku-1", Name: "Widget", UnitPrice: d("10"), Quantity: 2},
		},
		Coupon: &snapshot.Coupon{Code: "SAVE10", Discount: d("2"), SubtotalAtValidation: d("20")},
	})
	s.Require().NoError(err)

	m := NewManager(s.store, nil, nil)
	c, err := m.Get(s.ctx, id)
	s.Require().NoError(err)

	s.Equal(2, c.ItemCount())
	s.Equal("20", c.Subtotal().String())
	s.Require().NotNil(c.Coupon())
	s.Equal("SAVE10", c.Coupon().Code)
	s.Equal("18", c.Total().String())
	s.False(c.CouponStale())
}

func (s *ManagerSuite) TestRestoreDropsInvalidSnapshotEntries() {
	id := domain.NewCartID()
	err := s.store.Save(s.ctx, id, &snapshot.Snapshot{
		Items: []snapshot.Item{
			{ProductID: "", Name: "No ID", UnitPrice: d("10"), Quantity: 1},
			{ProductID: "sku-1", Name: "Bad quantity", UnitPrice: d("10"), Quantity: 0},
			{ProductID: "sku-2", Name: "Good", UnitPrice: d("5"), Quantity: 1},
		},
	})
	s.Require().NoError(err)

	m := NewManager(s.store, nil, nil)
	c, err := m.Get(s.ctx, id)
	s.Require().NoError(err)

	items := c.Items()
	s.Require().Len(items, 1)
	s.Equal("sku-2", items[0].ProductID)
}

func (s *ManagerSuite) TestCorruptSnapshotDegradesToEmptyCart() {
	id := domain.NewCartID()
	err := s.store.Save(s.ctx, id, &snapshot.Snapshot{
		Items: []snapshot.Item{{ProductID: "sku-1", UnitPrice: d("10"), Quantity: 1}},
	})
	s.Require().NoError(err)
	s.store.Corrupt(id)

	m := NewManager(s.store, nil, nil)
	c, err := m.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Empty(c.Items())

	// The degraded cart stays fully usable.
	_, err = c.AddItem(s.ctx, "sku-2", "Gadget", d("5"), 1, "")
	s.NoError(err)
}

func (s *ManagerSuite) TestStoreOutageDegradesToEmptyCart() {
	m := NewManager(failingStore{}, nil, nil)
	c, err := m.Get(s.ctx, domain.NewCartID())
	s.Require().NoError(err)
	s.Empty(c.Items())
}

func (s *ManagerSuite) TestNilStoreMeansFreshCarts() {
	m := NewManager(nil, nil, nil)
	c, err := m.Get(s.ctx, domain.NewCartID())
	s.Require().NoError(err)
	s.Empty(c.Items())
}
