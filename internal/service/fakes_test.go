package service_test

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/linemk/shop/internal/domain/models"
	"github.com/linemk/shop/internal/storage"
)

type fakeUserRepo struct {
	users       map[string]*models.User // ключ: username
	permissions map[int64]map[string]bool
}

var _ storage.UserStorage = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:       make(map[string]*models.User),
		permissions: make(map[int64]map[string]bool),
	}
}

func (f *fakeUserRepo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, ok := f.users[username]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if _, ok := f.users[user.Username]; ok {
		return nil, storage.ErrUserExists
	}
	user.ID = int64(len(f.users) + 1)
	f.users[user.Username] = user
	return user, nil
}

func (f *fakeUserRepo) HasPermissions(ctx context.Context, userID int64, codenames []string) (bool, error) {
	user, err := f.GetUserByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if user.IsSuperuser {
		return true, nil
	}
	for _, c := range codenames {
		if !f.permissions[userID][c] {
			return false, nil
		}
	}
	return true, nil
}

type fakeBrandRepo struct {
	brands map[int64]*models.Brand
	nextID int64
}

var _ storage.BrandStorage = (*fakeBrandRepo)(nil)

func newFakeBrandRepo() *fakeBrandRepo {
	return &fakeBrandRepo{brands: make(map[int64]*models.Brand)}
}

func (f *fakeBrandRepo) CreateBrand(ctx context.Context, name string) (*models.Brand, error) {
	f.nextID++
	brand := &models.Brand{ID: f.nextID, Name: name}
	f.brands[brand.ID] = brand
	return brand, nil
}

func (f *fakeBrandRepo) GetBrandByID(ctx context.Context, id int64) (*models.Brand, error) {
	brand, ok := f.brands[id]
	if !ok {
		return nil, storage.ErrBrandNotFound
	}
	return brand, nil
}

func (f *fakeBrandRepo) ListBrands(ctx context.Context) ([]*models.Brand, error) {
	brands := []*models.Brand{}
	for _, b := range f.brands {
		brands = append(brands, b)
	}
	sort.Slice(brands, func(i, j int) bool { return brands[i].ID < brands[j].ID })
	return brands, nil
}

func (f *fakeBrandRepo) UpdateBrand(ctx context.Context, brand *models.Brand) error {
	if _, ok := f.brands[brand.ID]; !ok {
		return storage.ErrBrandNotFound
	}
	f.brands[brand.ID] = brand
	return nil
}

func (f *fakeBrandRepo) DeleteBrandTx(ctx context.Context, tx *sql.Tx, id int64) error {
	if _, ok := f.brands[id]; !ok {
		return storage.ErrBrandNotFound
	}
	delete(f.brands, id)
	return nil
}

type fakeProductRepo struct {
	products map[int64]*models.Product
	brands   *fakeBrandRepo
	nextID   int64
}

var _ storage.ProductStorage = (*fakeProductRepo)(nil)

func newFakeProductRepo(brands *fakeBrandRepo) *fakeProductRepo {
	return &fakeProductRepo{products: make(map[int64]*models.Product), brands: brands}
}

// add кладёт товар напрямую, минуя проверки
func (f *fakeProductRepo) add(name, price string) *models.Product {
	f.nextID++
	p := &models.Product{
		ID:       f.nextID,
		BrandID:  1,
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Category: models.CategoryUnisex,
	}
	f.products[p.ID] = p
	return p
}

func (f *fakeProductRepo) sorted() []*models.Product {
	products := make([]*models.Product, 0, len(f.products))
	for _, p := range f.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products
}

func page(products []*models.Product, limit, offset int) []*models.Product {
	if offset >= len(products) {
		return []*models.Product{}
	}
	end := offset + limit
	if end > len(products) {
		end = len(products)
	}
	return products[offset:end]
}

func (f *fakeProductRepo) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if f.brands != nil {
		if _, err := f.brands.GetBrandByID(ctx, product.BrandID); err != nil {
			return nil, err
		}
	}
	f.nextID++
	product.ID = f.nextID
	f.products[product.ID] = product
	return product, nil
}

func (f *fakeProductRepo) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, storage.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) ListProducts(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	return page(f.sorted(), limit, offset), nil
}

func (f *fakeProductRepo) CountProducts(ctx context.Context) (int, error) {
	return len(f.products), nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (f *fakeProductRepo) matching(query string) []*models.Product {
	var found []*models.Product
	for _, p := range f.sorted() {
		if containsFold(p.Name, query) {
			found = append(found, p)
		}
	}
	return found
}

func (f *fakeProductRepo) SearchProducts(ctx context.Context, query string, limit, offset int) ([]*models.Product, error) {
	return page(f.matching(query), limit, offset), nil
}

func (f *fakeProductRepo) CountSearchProducts(ctx context.Context, query string) (int, error) {
	return len(f.matching(query)), nil
}

func (f *fakeProductRepo) UpdateProduct(ctx context.Context, product *models.Product) error {
	if _, ok := f.products[product.ID]; !ok {
		return storage.ErrProductNotFound
	}
	f.products[product.ID] = product
	return nil
}

func (f *fakeProductRepo) ProductIDsByBrandTx(ctx context.Context, tx *sql.Tx, brandID int64) ([]int64, error) {
	var ids []int64
	for _, p := range f.sorted() {
		if p.BrandID == brandID {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func (f *fakeProductRepo) DeleteProductsTx(ctx context.Context, tx *sql.Tx, ids []int64) (int64, error) {
	var deleted int64
	for _, id := range ids {
		if _, ok := f.products[id]; ok {
			delete(f.products, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakeCommentRepo struct {
	comments  map[int64]*models.Comment
	nextID    int64
	createErr error
}

var _ storage.CommentStorage = (*fakeCommentRepo)(nil)

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: make(map[int64]*models.Comment)}
}

func (f *fakeCommentRepo) CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	comment.ID = f.nextID
	comment.CreatedAt = time.Now()
	f.comments[comment.ID] = comment
	return comment, nil
}

func (f *fakeCommentRepo) GetCommentByID(ctx context.Context, id int64) (*models.Comment, error) {
	c, ok := f.comments[id]
	if !ok {
		return nil, storage.ErrCommentNotFound
	}
	// копия, чтобы сервис не менял хранилище в обход методов
	cp := *c
	return &cp, nil
}

func (f *fakeCommentRepo) ListCommentsByProduct(ctx context.Context, productID int64) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	for _, c := range f.comments {
		if c.ProductID == productID {
			comments = append(comments, c)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].ID < comments[j].ID })
	return comments, nil
}

func (f *fakeCommentRepo) UpdateCommentText(ctx context.Context, id int64, text string) error {
	c, ok := f.comments[id]
	if !ok {
		return storage.ErrCommentNotFound
	}
	c.Text = text
	return nil
}

func (f *fakeCommentRepo) DeleteComment(ctx context.Context, id int64) error {
	if _, ok := f.comments[id]; !ok {
		return storage.ErrCommentNotFound
	}
	delete(f.comments, id)
	return nil
}

func (f *fakeCommentRepo) DeleteCommentsByProductsTx(ctx context.Context, tx *sql.Tx, productIDs []int64) (int64, error) {
	var deleted int64
	for id, c := range f.comments {
		for _, pid := range productIDs {
			if c.ProductID == pid {
				delete(f.comments, id)
				deleted++
				break
			}
		}
	}
	return deleted, nil
}

type fakeCartRepo struct {
	carts    map[int64]int64 // ключ: userID, значение: cartID
	lines    map[int64][]models.CartLine
	products *fakeProductRepo
	// clearShortfall уменьшает число удалённых строк в ClearCartTx
	clearShortfall int64
}

var _ storage.CartStorage = (*fakeCartRepo)(nil)

func newFakeCartRepo(products *fakeProductRepo) *fakeCartRepo {
	return &fakeCartRepo{
		carts:    make(map[int64]int64),
		lines:    make(map[int64][]models.CartLine),
		products: products,
	}
}

func (f *fakeCartRepo) GetOrCreateCart(ctx context.Context, userID int64) (int64, error) {
	if id, ok := f.carts[userID]; ok {
		return id, nil
	}
	id := int64(len(f.carts) + 1)
	f.carts[userID] = id
	return id, nil
}

func (f *fakeCartRepo) LockOrCreateCartTx(ctx context.Context, tx *sql.Tx, userID int64) (int64, error) {
	return f.GetOrCreateCart(ctx, userID)
}

func (f *fakeCartRepo) IncrementProductTx(ctx context.Context, tx *sql.Tx, cartID, productID int64) (int, error) {
	lines := f.lines[cartID]
	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Quantity++
			return lines[i].Quantity, nil
		}
	}
	if _, err := f.products.GetProductByID(ctx, productID); err != nil {
		return 0, err
	}
	f.lines[cartID] = append(lines, models.CartLine{
		ID:        int64(len(lines) + 1),
		CartID:    cartID,
		ProductID: productID,
		Quantity:  1,
	})
	return 1, nil
}

// GetLines, как и JOIN в postgres, подставляет текущие название и цену товара
func (f *fakeCartRepo) GetLines(ctx context.Context, cartID int64) ([]models.CartLine, error) {
	lines := []models.CartLine{}
	for _, l := range f.lines[cartID] {
		p, err := f.products.GetProductByID(ctx, l.ProductID)
		if err != nil {
			continue
		}
		l.ProductName = p.Name
		l.Price = p.Price
		lines = append(lines, l)
	}
	return lines, nil
}

func (f *fakeCartRepo) GetLinesTx(ctx context.Context, tx *sql.Tx, cartID int64) ([]models.CartLine, error) {
	return f.GetLines(ctx, cartID)
}

func (f *fakeCartRepo) ClearCartTx(ctx context.Context, tx *sql.Tx, cartID int64) (int64, error) {
	n := int64(len(f.lines[cartID])) - f.clearShortfall
	delete(f.lines, cartID)
	return n, nil
}

func (f *fakeCartRepo) DeleteLinesByProductsTx(ctx context.Context, tx *sql.Tx, productIDs []int64) (int64, error) {
	var deleted int64
	for cartID, lines := range f.lines {
		kept := lines[:0]
		for _, l := range lines {
			drop := false
			for _, pid := range productIDs {
				if l.ProductID == pid {
					drop = true
					break
				}
			}
			if drop {
				deleted++
				continue
			}
			kept = append(kept, l)
		}
		f.lines[cartID] = kept
	}
	return deleted, nil
}

type fakeOrderRepo struct {
	orders map[int64]*models.Order
	nextID int64
	// lineErr возвращается из AddOrderLineTx, если задан
	lineErr error
}

var _ storage.OrderStorage = (*fakeOrderRepo)(nil)

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[int64]*models.Order)}
}

func (f *fakeOrderRepo) CreateOrderTx(ctx context.Context, tx *sql.Tx, userID int64) (*models.Order, error) {
	f.nextID++
	order := &models.Order{ID: f.nextID, UserID: userID, CreatedAt: time.Now()}
	f.orders[order.ID] = order
	return &models.Order{ID: order.ID, UserID: userID, CreatedAt: order.CreatedAt}, nil
}

func (f *fakeOrderRepo) AddOrderLineTx(ctx context.Context, tx *sql.Tx, orderID, productID int64, quantity int, unitPrice decimal.Decimal) error {
	if f.lineErr != nil {
		return f.lineErr
	}
	order, ok := f.orders[orderID]
	if !ok {
		return errors.New("order not found")
	}
	order.Lines = append(order.Lines, models.OrderLine{
		ID:        int64(len(order.Lines) + 1),
		OrderID:   orderID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	})
	return nil
}

func (f *fakeOrderRepo) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	orders := []*models.Order{}
	for _, o := range f.orders {
		if o.UserID == userID {
			o.Total = o.LinesTotal()
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	return orders, nil
}

func (f *fakeOrderRepo) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, storage.ErrOrderNotFound
	}
	o.Total = o.LinesTotal()
	return o, nil
}

func (f *fakeOrderRepo) CountLinesForProductsTx(ctx context.Context, tx *sql.Tx, productIDs []int64) (int, error) {
	count := 0
	for _, o := range f.orders {
		for _, l := range o.Lines {
			for _, pid := range productIDs {
				if l.ProductID == pid {
					count++
				}
			}
		}
	}
	return count, nil
}
