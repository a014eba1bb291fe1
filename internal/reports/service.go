package reports

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

const (
	defaultSalesWindowDays = 30
	defaultTopLimit        = 10
	maxTopLimit            = 100
)

// Service coordinates report queries with the cache layer.
type Service struct {
	repo  Repository
	cache *Cache
	loc   *time.Location
	now   func() time.Time
}

// NewService wires a Repository with a Cache helper.
func NewService(repo Repository, cache *Cache, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, cache: cache, loc: loc, now: time.Now}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Location returns the business time zone.
func (s *Service) Location() *time.Location {
	return s.loc
}

// DateRange is an inclusive range of business days.
type DateRange struct {
	From time.Time
	To   time.Time
}

func (d DateRange) key() string {
	return d.From.Format(time.DateOnly) + "_" + d.To.Format(time.DateOnly)
}

func (s *Service) today() time.Time {
	y, m, d := s.now().In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

// resolve fills a missing bound with a window ending today.
func (s *Service) resolve(from, to *time.Time, days int) DateRange {
	r := DateRange{To: s.today()}
	if to != nil {
		r.To = *to
	}
	r.From = r.To.AddDate(0, 0, -(days - 1))
	if from != nil {
		r.From = *from
	}
	return r
}

func cached[T any](ctx context.Context, s *Service, load func(context.Context) (T, error), parts ...string) (T, error) {
	var out T
	key, err := s.cache.BuildKey(ctx, parts...)
	if err != nil {
		return out, err
	}
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		return load(ctx)
	})
	return out, err
}

// SalesByDay returns one row per day in range, including days without sales.
func (s *Service) SalesByDay(ctx context.Context, from, to *time.Time) ([]DailySales, error) {
	rng := s.resolve(from, to, defaultSalesWindowDays)
	if rng.To.Before(rng.From) {
		return nil, shared.Validationf("from must not be after to")
	}
	return cached(ctx, s, func(ctx context.Context) ([]DailySales, error) {
		rows, err := s.repo.SalesByDay(ctx, rng.From, rng.To.AddDate(0, 0, 1), s.loc.String())
		if err != nil {
			return nil, err
		}
		byDate := make(map[string]DailySales, len(rows))
		for _, r := range rows {
			byDate[r.Date] = r
		}
		var out []DailySales
		for d := rng.From; !d.After(rng.To); d = d.AddDate(0, 0, 1) {
			key := d.Format(time.DateOnly)
			row, ok := byDate[key]
			if !ok {
				row = DailySales{Date: key}
			}
			out = append(out, row)
		}
		return out, nil
	}, "sales_by_day", s.loc.String(), rng.key())
}

// InventoryValuation values active stock at cost and retail.
func (s *Service) InventoryValuation(ctx context.Context) (InventoryValuation, error) {
	return cached(ctx, s, func(ctx context.Context) (InventoryValuation, error) {
		rows, err := s.repo.InventoryRows(ctx)
		if err != nil {
			return InventoryValuation{}, err
		}
		return valueInventory(rows), nil
	}, "inventory_valuation")
}

func valueInventory(rows []ProductValuation) InventoryValuation {
	out := InventoryValuation{Products: make([]ProductValuation, 0, len(rows))}
	cats := map[string]*CategoryValuation{}
	for _, p := range rows {
		qty := decimal.NewFromInt(int64(p.Quantity))
		p.CostValue = p.CostPrice.Mul(qty)
		p.RetailValue = p.Price.Mul(qty)
		out.Products = append(out.Products, p)
		out.TotalCost = out.TotalCost.Add(p.CostValue)
		out.TotalRetail = out.TotalRetail.Add(p.RetailValue)

		c, ok := cats[p.Category]
		if !ok {
			c = &CategoryValuation{Category: p.Category}
			cats[p.Category] = c
		}
		c.Products++
		c.Quantity += p.Quantity
		c.CostValue = c.CostValue.Add(p.CostValue)
		c.RetailValue = c.RetailValue.Add(p.RetailValue)
	}
	out.Categories = make([]CategoryValuation, 0, len(cats))
	for _, c := range cats {
		out.Categories = append(out.Categories, *c)
	}
	sort.Slice(out.Categories, func(i, j int) bool { return out.Categories[i].Category < out.Categories[j].Category })
	return out
}

// ExpensesByCategory totals expenses per category.
func (s *Service) ExpensesByCategory(ctx context.Context, from, to *time.Time) ([]CategoryAmount, error) {
	rng := s.resolve(from, to, defaultSalesWindowDays)
	return cached(ctx, s, func(ctx context.Context) ([]CategoryAmount, error) {
		rows, err := s.repo.ExpensesByCategory(ctx, rng.From, rng.To)
		if rows == nil {
			rows = []CategoryAmount{}
		}
		return rows, err
	}, "expenses_by_category", rng.key())
}

// ProfitLoss reports sales, cost of goods, expenses and net for each month of year.
func (s *Service) ProfitLoss(ctx context.Context, year int) (ProfitLoss, error) {
	if year == 0 {
		year = s.today().Year()
	}
	if year < 2000 || year > 9999 {
		return ProfitLoss{}, shared.NewValidationError("invalid year", map[string]int{"year": year})
	}
	return cached(ctx, s, func(ctx context.Context) (ProfitLoss, error) {
		rows, err := s.repo.MonthlyFigures(ctx, year, s.loc.String())
		if err != nil {
			return ProfitLoss{}, err
		}
		return buildProfitLoss(year, rows), nil
	}, "profit_loss", s.loc.String(), strconv.Itoa(year))
}

func buildProfitLoss(year int, rows []MonthFigures) ProfitLoss {
	out := ProfitLoss{Year: year, Months: make([]ProfitLossMonth, 12), Totals: ProfitLossMonth{Label: "Total"}}
	for i := range out.Months {
		out.Months[i] = ProfitLossMonth{Month: i + 1, Label: time.Month(i + 1).String()}
	}
	for _, r := range rows {
		if r.Month < 1 || r.Month > 12 {
			continue
		}
		m := &out.Months[r.Month-1]
		m.Sales = m.Sales.Add(r.Sales)
		m.CostOfGoods = m.CostOfGoods.Add(r.CostOfGoods)
		m.Expenses = m.Expenses.Add(r.Expenses)
	}
	for i := range out.Months {
		m := &out.Months[i]
		m.Net = m.Sales.Sub(m.CostOfGoods).Sub(m.Expenses)
		out.Totals.Sales = out.Totals.Sales.Add(m.Sales)
		out.Totals.CostOfGoods = out.Totals.CostOfGoods.Add(m.CostOfGoods)
		out.Totals.Expenses = out.Totals.Expenses.Add(m.Expenses)
		out.Totals.Net = out.Totals.Net.Add(m.Net)
	}
	return out
}

// TopProducts ranks products by line revenue.
func (s *Service) TopProducts(ctx context.Context, limit int, from, to *time.Time) ([]TopProduct, error) {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	limit = min(limit, maxTopLimit)
	rng := s.resolve(from, to, defaultSalesWindowDays)
	return cached(ctx, s, func(ctx context.Context) ([]TopProduct, error) {
		rows, err := s.repo.TopProducts(ctx, rng.From, rng.To.AddDate(0, 0, 1), limit)
		if rows == nil {
			rows = []TopProduct{}
		}
		return rows, err
	}, "top_products", strconv.Itoa(limit), rng.key())
}

// Outstanding lists customers with a positive balance.
func (s *Service) Outstanding(ctx context.Context) ([]OutstandingCustomer, error) {
	return cached(ctx, s, func(ctx context.Context) ([]OutstandingCustomer, error) {
		rows, err := s.repo.Outstanding(ctx)
		if rows == nil {
			rows = []OutstandingCustomer{}
		}
		return rows, err
	}, "outstanding")
}

// Dashboard loads the landing page figures concurrently.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	today := s.today()
	var out Dashboard
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		days, err := s.SalesByDay(ctx, &today, &today)
		if err != nil {
			return err
		}
		if len(days) > 0 {
			out.Today = days[0]
		}
		return nil
	})
	g.Go(func() error {
		pl, err := s.ProfitLoss(ctx, today.Year())
		if err != nil {
			return err
		}
		out.Month = pl.Months[today.Month()-1]
		return nil
	})
	g.Go(func() error {
		n, err := s.repo.LowStockCount(ctx)
		if err != nil {
			return err
		}
		out.LowStockCount = n
		return nil
	})
	g.Go(func() error {
		rows, err := s.Outstanding(ctx)
		if err != nil {
			return err
		}
		total := decimal.Zero
		for _, r := range rows {
			total = total.Add(r.TotalDue)
		}
		out.OutstandingTotal = total
		out.OutstandingCustomers = len(rows)
		return nil
	})

	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return out, nil
}
