// Package repotest はテスト用のインメモリ実装。
// Tx は1本ずつ直列に走り、fn がエラーを返したらスナップショットに戻す
package repotest

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/clock"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
	repo "github.com/gulzar72441/FastEndpoints-Ecommerce/internal/repository"
)

type data struct {
	seq map[string]int64

	users       map[int64]model.User
	categories  map[int64]model.Category
	products    map[int64]model.Product
	deleted     map[int64]bool
	carts       map[int64]model.Cart
	cartItems   map[int64]model.CartItem
	promotions  map[int64]model.Promotion
	orders      map[int64]model.Order
	orderItems  map[int64]model.OrderItem
	payments    map[int64]model.Payment
	auditLogs   []model.AuditLog
	adjustments []model.InventoryAdjustment
}

func newData() data {
	return data{
		seq:        map[string]int64{},
		users:      map[int64]model.User{},
		categories: map[int64]model.Category{},
		products:   map[int64]model.Product{},
		deleted:    map[int64]bool{},
		carts:      map[int64]model.Cart{},
		cartItems:  map[int64]model.CartItem{},
		promotions: map[int64]model.Promotion{},
		orders:     map[int64]model.Order{},
		orderItems: map[int64]model.OrderItem{},
		payments:   map[int64]model.Payment{},
	}
}

func (d data) clone() data {
	c := data{
		seq:         maps.Clone(d.seq),
		users:       maps.Clone(d.users),
		categories:  maps.Clone(d.categories),
		products:    maps.Clone(d.products),
		deleted:     maps.Clone(d.deleted),
		carts:       maps.Clone(d.carts),
		cartItems:   maps.Clone(d.cartItems),
		promotions:  make(map[int64]model.Promotion, len(d.promotions)),
		orders:      maps.Clone(d.orders),
		orderItems:  maps.Clone(d.orderItems),
		payments:    maps.Clone(d.payments),
		auditLogs:   slices.Clone(d.auditLogs),
		adjustments: slices.Clone(d.adjustments),
	}
	for id, p := range d.promotions {
		c.promotions[id] = clonePromotion(p)
	}
	return c
}

func clonePromotion(p model.Promotion) model.Promotion {
	p.Products = slices.Clone(p.Products)
	p.Categories = slices.Clone(p.Categories)
	return p
}

func (d *data) next(table string) int64 {
	d.seq[table]++
	return d.seq[table]
}

// Store は repo.TransactionManager を満たす
type Store struct {
	mu    sync.Mutex
	d     data
	clock clock.Clock

	// テストから失敗を差し込む（nilなら普通に動く）
	FailPaymentCreate error
	// Orders().Create の直前に呼ばれる。true を返すと一意制約違反にする
	RejectOrderNumber func(number string) bool
}

func NewStore(clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Store{d: newData(), clock: clk}
}

func (s *Store) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := s.d.clone()
	if err := fn(&txRepos{s: s}); err != nil {
		s.d = snapshot
		return err
	}
	if err := ctx.Err(); err != nil {
		s.d = snapshot
		return err
	}
	return nil
}

// テストデータ投入・確認用（Tx の外から使う）

func (s *Store) AddUser(u model.User) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.d.next("users")
	}
	if u.Role == "" {
		u.Role = model.RoleCustomer
	}
	u.TouchCreated(s.clock.Now())
	s.d.users[u.ID] = u
	return u
}

func (s *Store) AddCategory(c model.Category) model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.d.next("categories")
	c.TouchCreated(s.clock.Now())
	s.d.categories[c.ID] = c
	return c
}

func (s *Store) AddProduct(p model.Product) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.d.next("products")
	p.TouchCreated(s.clock.Now())
	s.d.products[p.ID] = p
	return p
}

func (s *Store) AddPromotion(p model.Promotion) model.Promotion {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.d.next("promotions")
	p.Code = model.NormalizePromotionCode(p.Code)
	p.TouchCreated(s.clock.Now())
	for i := range p.Products {
		p.Products[i].PromotionID = p.ID
	}
	for i := range p.Categories {
		p.Categories[i].PromotionID = p.ID
	}
	s.d.promotions[p.ID] = clonePromotion(p)
	return p
}

func (s *Store) Product(id int64) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.products[id]
}

func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.d.orders)
}

func (s *Store) PaymentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.d.payments)
}

func (s *Store) CartItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.d.cartItems)
}

func (s *Store) AuditLogs() []model.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.d.auditLogs)
}

func (s *Store) Adjustments() []model.InventoryAdjustment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.d.adjustments)
}

type txRepos struct {
	s *Store
}

func (t *txRepos) Users() repo.UserRepository           { return userRepo{t} }
func (t *txRepos) Categories() repo.CategoryRepository  { return categoryRepo{t} }
func (t *txRepos) Products() repo.ProductRepository     { return productRepo{t} }
func (t *txRepos) Inventory() repo.InventoryRepository  { return inventoryRepo{t} }
func (t *txRepos) Carts() repo.CartRepository           { return cartRepo{t} }
func (t *txRepos) CartItems() repo.CartItemRepository   { return cartRepo{t} }
func (t *txRepos) Promotions() repo.PromotionRepository { return promotionRepo{t} }
func (t *txRepos) Orders() repo.OrderRepository         { return orderRepo{t} }
func (t *txRepos) OrderItems() repo.OrderItemRepository { return orderRepo{t} }
func (t *txRepos) Payments() repo.PaymentRepository     { return paymentRepo{t} }
func (t *txRepos) AuditLogs() repo.AuditLogRepository   { return auditRepo{t} }
func (t *txRepos) data() *data                          { return &t.s.d }
func (t *txRepos) now() time.Time                       { return t.s.clock.Now() }

// users

type userRepo struct{ t *txRepos }

func (r userRepo) Create(_ context.Context, u *model.User) error {
	d := r.t.data()
	for _, ex := range d.users {
		if strings.EqualFold(ex.Email, u.Email) || ex.Username == u.Username {
			return fmt.Errorf("create user: %w", repo.ErrDuplicate)
		}
	}
	u.ID = d.next("users")
	u.TouchCreated(r.t.now())
	d.users[u.ID] = *u
	return nil
}

func (r userRepo) FindByID(_ context.Context, id int64) (model.User, error) {
	u, ok := r.t.data().users[id]
	if !ok {
		return model.User{}, repo.ErrNotFound
	}
	return u, nil
}

func (r userRepo) FindByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range r.t.data().users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, repo.ErrNotFound
}

// categories

type categoryRepo struct{ t *txRepos }

func (r categoryRepo) List(context.Context) ([]model.Category, error) {
	out := slices.Collect(maps.Values(r.t.data().categories))
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r categoryRepo) FindByID(_ context.Context, id int64) (model.Category, error) {
	c, ok := r.t.data().categories[id]
	if !ok {
		return model.Category{}, repo.ErrNotFound
	}
	return c, nil
}

func (r categoryRepo) Create(_ context.Context, c model.Category) (model.Category, error) {
	d := r.t.data()
	for _, ex := range d.categories {
		if ex.Name == c.Name {
			return model.Category{}, fmt.Errorf("create category: %w", repo.ErrDuplicate)
		}
	}
	c.ID = d.next("categories")
	c.TouchCreated(r.t.now())
	d.categories[c.ID] = c
	return c, nil
}

// products

type productRepo struct{ t *txRepos }

func (r productRepo) live(id int64) (model.Product, bool) {
	d := r.t.data()
	p, ok := d.products[id]
	if !ok || d.deleted[id] {
		return model.Product{}, false
	}
	return p, true
}

func (r productRepo) ListPublic(_ context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var out []model.Product
	for id := range r.t.data().products {
		p, ok := r.live(id)
		if !ok || !p.IsActive {
			continue
		}
		if q.Q != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Q)) {
			continue
		}
		if q.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *q.CategoryID) {
			continue
		}
		if q.MinPrice != nil && p.Price.LessThan(*q.MinPrice) {
			continue
		}
		if q.MaxPrice != nil && p.Price.GreaterThan(*q.MaxPrice) {
			continue
		}
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch q.Sort {
		case "price_asc":
			if !a.Price.Equal(b.Price) {
				return a.Price.LessThan(b.Price)
			}
			return a.ID < b.ID
		case "price_desc":
			if !a.Price.Equal(b.Price) {
				return a.Price.GreaterThan(b.Price)
			}
			return a.ID > b.ID
		case "name":
			if a.Name != b.Name {
				return a.Name < b.Name
			}
			return a.ID < b.ID
		default:
			return a.ID > b.ID
		}
	})

	total := int64(len(out))
	start := (q.Page - 1) * q.Limit
	if start > len(out) {
		start = len(out)
	}
	end := min(start+q.Limit, len(out))
	return out[start:end], total, nil
}

func (r productRepo) FindByID(_ context.Context, id int64) (model.Product, error) {
	p, ok := r.live(id)
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r productRepo) FindByIDs(_ context.Context, ids []int64) (map[int64]model.Product, error) {
	out := make(map[int64]model.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.live(id); ok {
			out[id] = p
		}
	}
	return out, nil
}

func (r productRepo) Create(_ context.Context, p model.Product) (model.Product, error) {
	d := r.t.data()
	p.ID = d.next("products")
	p.TouchCreated(r.t.now())
	d.products[p.ID] = p
	return p, nil
}

func (r productRepo) Update(_ context.Context, p model.Product) error {
	cur, ok := r.live(p.ID)
	if !ok {
		return repo.ErrNotFound
	}
	cur.Name = p.Name
	cur.Description = p.Description
	cur.Price = p.Price
	cur.IsActive = p.IsActive
	cur.CategoryID = p.CategoryID
	cur.TouchUpdated(r.t.now())
	r.t.data().products[p.ID] = cur
	return nil
}

func (r productRepo) SoftDelete(_ context.Context, id int64) error {
	if _, ok := r.live(id); !ok {
		return repo.ErrNotFound
	}
	r.t.data().deleted[id] = true
	return nil
}

// inventory

type inventoryRepo struct{ t *txRepos }

func (r inventoryRepo) DecrementStock(_ context.Context, productID int64, qty int64) error {
	p, ok := productRepo(r).live(productID)
	if !ok {
		return repo.ErrNotFound
	}
	if p.Stock < qty {
		return repo.ErrInsufficientStock
	}
	p.Stock -= qty
	p.TouchUpdated(r.t.now())
	r.t.data().products[productID] = p
	return nil
}

func (r inventoryRepo) SetStockWithAdjustment(_ context.Context, adminUserID int64, productID int64, newStock int64, reason string) (int64, error) {
	p, ok := productRepo(r).live(productID)
	if !ok {
		return 0, repo.ErrNotFound
	}
	before := p.Stock
	p.Stock = newStock
	p.TouchUpdated(r.t.now())

	d := r.t.data()
	d.products[productID] = p
	adj := model.NewInventoryAdjustment(adminUserID, productID, before, newStock, reason)
	adj.ID = d.next("inventory_adjustments")
	adj.TouchCreated(r.t.now())
	d.adjustments = append(d.adjustments, adj)
	return before, nil
}

// carts（CartRepository と CartItemRepository の両方）

type cartRepo struct{ t *txRepos }

func (r cartRepo) GetOrCreateByUserID(_ context.Context, userID int64) (model.Cart, error) {
	d := r.t.data()
	for _, c := range d.carts {
		if c.UserID == userID {
			return c, nil
		}
	}
	c := model.Cart{ID: d.next("carts"), UserID: userID}
	c.TouchCreated(r.t.now())
	d.carts[c.ID] = c
	return c, nil
}

func (r cartRepo) Touch(_ context.Context, cartID int64) error {
	d := r.t.data()
	c, ok := d.carts[cartID]
	if !ok {
		return repo.ErrNotFound
	}
	c.TouchUpdated(r.t.now())
	d.carts[cartID] = c
	return nil
}

func (r cartRepo) Clear(ctx context.Context, cartID int64) error {
	d := r.t.data()
	for id, it := range d.cartItems {
		if it.CartID == cartID {
			delete(d.cartItems, id)
		}
	}
	return r.Touch(ctx, cartID)
}

func (r cartRepo) ListByCartID(_ context.Context, cartID int64) ([]model.CartItem, error) {
	var out []model.CartItem
	for _, it := range r.t.data().cartItems {
		if it.CartID == cartID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r cartRepo) FindByCartAndProduct(_ context.Context, cartID int64, productID int64) (model.CartItem, error) {
	for _, it := range r.t.data().cartItems {
		if it.CartID == cartID && it.ProductID == productID {
			return it, nil
		}
	}
	return model.CartItem{}, repo.ErrNotFound
}

func (r cartRepo) FindInCart(_ context.Context, cartID int64, cartItemID int64) (model.CartItem, error) {
	it, ok := r.t.data().cartItems[cartItemID]
	if !ok || it.CartID != cartID {
		return model.CartItem{}, repo.ErrNotFound
	}
	return it, nil
}

func (r cartRepo) Create(ctx context.Context, item model.CartItem) (model.CartItem, error) {
	if _, err := r.FindByCartAndProduct(ctx, item.CartID, item.ProductID); err == nil {
		return model.CartItem{}, fmt.Errorf("create cart item: %w", repo.ErrDuplicate)
	}
	d := r.t.data()
	item.ID = d.next("cart_items")
	item.TouchCreated(r.t.now())
	d.cartItems[item.ID] = item
	return item, nil
}

func (r cartRepo) Update(_ context.Context, item model.CartItem) error {
	d := r.t.data()
	cur, ok := d.cartItems[item.ID]
	if !ok {
		return repo.ErrNotFound
	}
	cur.Quantity = item.Quantity
	cur.UnitPrice = item.UnitPrice
	cur.TotalPrice = item.TotalPrice
	cur.TouchUpdated(r.t.now())
	d.cartItems[item.ID] = cur
	return nil
}

func (r cartRepo) Delete(_ context.Context, cartID int64, cartItemID int64) error {
	d := r.t.data()
	if it, ok := d.cartItems[cartItemID]; ok && it.CartID == cartID {
		delete(d.cartItems, cartItemID)
	}
	return nil
}

// promotions

type promotionRepo struct{ t *txRepos }

func inWindow(p model.Promotion, now time.Time) bool {
	return p.IsActive && !now.Before(p.StartDate) && !now.After(p.EndDate)
}

func (r promotionRepo) sorted(keep func(model.Promotion) bool) []model.Promotion {
	var out []model.Promotion
	for _, p := range r.t.data().promotions {
		if keep(p) {
			out = append(out, clonePromotion(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r promotionRepo) FindByID(_ context.Context, id int64) (model.Promotion, error) {
	p, ok := r.t.data().promotions[id]
	if !ok {
		return model.Promotion{}, repo.ErrNotFound
	}
	return clonePromotion(p), nil
}

func (r promotionRepo) FindByCode(_ context.Context, code string) (model.Promotion, error) {
	for _, p := range r.t.data().promotions {
		if p.Code == code {
			return clonePromotion(p), nil
		}
	}
	return model.Promotion{}, repo.ErrNotFound
}

func (r promotionRepo) List(context.Context) ([]model.Promotion, error) {
	return r.sorted(func(model.Promotion) bool { return true }), nil
}

func (r promotionRepo) ListActive(_ context.Context, now time.Time) ([]model.Promotion, error) {
	out := r.sorted(func(p model.Promotion) bool { return inWindow(p, now) })
	sort.SliceStable(out, func(i, j int) bool { return out[i].EndDate.Before(out[j].EndDate) })
	return out, nil
}

func (r promotionRepo) ListForProduct(_ context.Context, productID int64, categoryID *int64, now time.Time) ([]model.Promotion, error) {
	return r.sorted(func(p model.Promotion) bool {
		if !inWindow(p, now) {
			return false
		}
		if slices.Contains(p.ProductIDs(), productID) {
			return true
		}
		return categoryID != nil && slices.Contains(p.CategoryIDs(), *categoryID)
	}), nil
}

func (r promotionRepo) Create(ctx context.Context, p model.Promotion) (model.Promotion, error) {
	if _, err := r.FindByCode(ctx, p.Code); err == nil {
		return model.Promotion{}, fmt.Errorf("create promotion: %w", repo.ErrDuplicate)
	}
	d := r.t.data()
	p.ID = d.next("promotions")
	p.TouchCreated(r.t.now())
	setScopeOwner(&p)
	d.promotions[p.ID] = clonePromotion(p)
	return p, nil
}

func (r promotionRepo) Update(ctx context.Context, p model.Promotion) error {
	d := r.t.data()
	cur, ok := d.promotions[p.ID]
	if !ok {
		return repo.ErrNotFound
	}
	if ex, err := r.FindByCode(ctx, p.Code); err == nil && ex.ID != p.ID {
		return fmt.Errorf("update promotion: %w", repo.ErrDuplicate)
	}
	p.CreatedAt = cur.CreatedAt
	p.TouchUpdated(r.t.now())
	setScopeOwner(&p)
	d.promotions[p.ID] = clonePromotion(p)
	return nil
}

func (r promotionRepo) Delete(_ context.Context, id int64) error {
	d := r.t.data()
	if _, ok := d.promotions[id]; !ok {
		return repo.ErrNotFound
	}
	delete(d.promotions, id)
	return nil
}

func setScopeOwner(p *model.Promotion) {
	for i := range p.Products {
		p.Products[i].PromotionID = p.ID
	}
	for i := range p.Categories {
		p.Categories[i].PromotionID = p.ID
	}
}

// orders（OrderRepository と OrderItemRepository の両方）

type orderRepo struct{ t *txRepos }

func (r orderRepo) withDetails(o model.Order) model.Order {
	d := r.t.data()
	o.Items = nil
	for _, it := range d.orderItems {
		if it.OrderID == o.ID {
			o.Items = append(o.Items, it)
		}
	}
	sort.Slice(o.Items, func(i, j int) bool { return o.Items[i].ID < o.Items[j].ID })
	o.Payment = nil
	for _, p := range d.payments {
		if p.OrderID == o.ID {
			o.Payment = &p
		}
	}
	return o
}

func newestFirst(out []model.Order) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OrderDate.Equal(out[j].OrderDate) {
			return out[i].OrderDate.After(out[j].OrderDate)
		}
		return out[i].ID > out[j].ID
	})
}

func (r orderRepo) FindByID(_ context.Context, id int64) (model.Order, error) {
	o, ok := r.t.data().orders[id]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return r.withDetails(o), nil
}

func (r orderRepo) ListByUserID(_ context.Context, userID int64) ([]model.Order, error) {
	var out []model.Order
	for _, o := range r.t.data().orders {
		if o.UserID == userID {
			out = append(out, r.withDetails(o))
		}
	}
	newestFirst(out)
	return out, nil
}

func (r orderRepo) ExistsByOrderNumber(_ context.Context, number string) (bool, error) {
	for _, o := range r.t.data().orders {
		if o.OrderNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (r orderRepo) Create(ctx context.Context, o *model.Order) error {
	if reject := r.t.s.RejectOrderNumber; reject != nil && reject(o.OrderNumber) {
		return fmt.Errorf("create order: %w", repo.ErrDuplicate)
	}
	if exists, _ := r.ExistsByOrderNumber(ctx, o.OrderNumber); exists {
		return fmt.Errorf("create order: %w", repo.ErrDuplicate)
	}
	d := r.t.data()
	o.ID = d.next("orders")
	o.TouchCreated(r.t.now())
	row := *o
	row.Items = nil
	row.Payment = nil
	d.orders[o.ID] = row
	return nil
}

func (r orderRepo) UpdateStatus(_ context.Context, orderID int64, status model.OrderStatus, deliveryDate *time.Time) error {
	d := r.t.data()
	o, ok := d.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	o.Status = status
	if deliveryDate != nil {
		dd := *deliveryDate
		o.DeliveryDate = &dd
	}
	o.TouchUpdated(r.t.now())
	d.orders[orderID] = o
	return nil
}

func (r orderRepo) ListAdmin(_ context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	var out []model.Order
	for _, o := range r.t.data().orders {
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		if f.From != nil && o.OrderDate.Before(*f.From) {
			continue
		}
		if f.To != nil && o.OrderDate.After(*f.To) {
			continue
		}
		out = append(out, r.withDetails(o))
	}
	newestFirst(out)

	total := int64(len(out))
	start := min((f.Page-1)*f.Limit, len(out))
	end := min(start+f.Limit, len(out))
	return out[start:end], total, nil
}

func (r orderRepo) CreateBulk(_ context.Context, orderID int64, items []model.OrderItem) ([]model.OrderItem, error) {
	d := r.t.data()
	out := make([]model.OrderItem, 0, len(items))
	for _, it := range items {
		it.ID = d.next("order_items")
		it.OrderID = orderID
		it.TouchCreated(r.t.now())
		d.orderItems[it.ID] = it
		out = append(out, it)
	}
	return out, nil
}

// payments

type paymentRepo struct{ t *txRepos }

func (r paymentRepo) Create(_ context.Context, p *model.Payment) error {
	if err := r.t.s.FailPaymentCreate; err != nil {
		return err
	}
	d := r.t.data()
	for _, ex := range d.payments {
		if ex.OrderID == p.OrderID || ex.TransactionID == p.TransactionID {
			return fmt.Errorf("create payment: %w", repo.ErrDuplicate)
		}
	}
	p.ID = d.next("payments")
	p.TouchCreated(r.t.now())
	d.payments[p.ID] = *p
	return nil
}

func (r paymentRepo) FindByID(_ context.Context, id int64) (model.Payment, error) {
	p, ok := r.t.data().payments[id]
	if !ok {
		return model.Payment{}, repo.ErrNotFound
	}
	return p, nil
}

func (r paymentRepo) UpdateStatus(_ context.Context, id int64, status model.PaymentStatus) error {
	d := r.t.data()
	p, ok := d.payments[id]
	if !ok {
		return repo.ErrNotFound
	}
	p.Status = status
	p.TouchUpdated(r.t.now())
	d.payments[id] = p
	return nil
}

// audit logs

type auditRepo struct{ t *txRepos }

func (r auditRepo) Create(_ context.Context, log model.AuditLog) error {
	d := r.t.data()
	log.ID = d.next("audit_logs")
	log.TouchCreated(r.t.now())
	d.auditLogs = append(d.auditLogs, log)
	return nil
}

func (r auditRepo) List(_ context.Context, f repo.AuditLogFilter) ([]model.AuditLog, int64, error) {
	var out []model.AuditLog
	for i := len(r.t.data().auditLogs) - 1; i >= 0; i-- {
		l := r.t.data().auditLogs[i]
		if f.ActorUserID != nil && l.ActorUserID != *f.ActorUserID {
			continue
		}
		if len(f.Actions) > 0 && !slices.Contains(f.Actions, l.Action) {
			continue
		}
		if f.ResourceType != nil && l.ResourceType != *f.ResourceType {
			continue
		}
		if f.ResourceID != nil && l.ResourceID != *f.ResourceID {
			continue
		}
		if f.CreatedFrom != nil && l.CreatedAt.Before(*f.CreatedFrom) {
			continue
		}
		if f.CreatedTo != nil && l.CreatedAt.After(*f.CreatedTo) {
			continue
		}
		out = append(out, l)
	}
	start := min(f.Offset, len(out))
	end := len(out)
	if f.Limit > 0 {
		end = min(start+f.Limit, len(out))
	}
	return out[start:end], int64(len(out)), nil
}
