package service

import (
	"context"
	"errors"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	cartdomain "github.com/smallbiznis/confeitaria/internal/cart/domain"
	"github.com/smallbiznis/confeitaria/internal/config"
	"github.com/smallbiznis/confeitaria/internal/identity"
	"github.com/smallbiznis/confeitaria/internal/notification"
	obslogger "github.com/smallbiznis/confeitaria/internal/observability/logger"
	"github.com/smallbiznis/confeitaria/internal/observability/metrics"
	"github.com/smallbiznis/confeitaria/internal/order/domain"
	"github.com/smallbiznis/confeitaria/internal/providers/email"
	"github.com/smallbiznis/confeitaria/internal/providers/pdf"
	"github.com/smallbiznis/confeitaria/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notifier is told about every stored order.
type Notifier interface {
	OrderPlaced(ctx context.Context, data email.OrderEmail)
}

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Repo         domain.Repository
	PDF          pdf.Provider
	Settings     *config.StoreSettingsHolder
	Notifier     *notification.Notifier `optional:"true"`
	Metrics      *metrics.Metrics       `optional:"true"`
	StoreMetrics *metrics.StoreMetrics  `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	repo         domain.Repository
	pdf          pdf.Provider
	settings     *config.StoreSettingsHolder
	notifier     Notifier
	metrics      *metrics.Metrics
	storeMetrics *metrics.StoreMetrics
}

func New(p Params) domain.Service {
	s := &Service{
		db:           p.DB,
		log:          p.Log.Named("order.service"),
		genID:        p.GenID,
		repo:         p.Repo,
		pdf:          p.PDF,
		settings:     p.Settings,
		metrics:      p.Metrics,
		storeMetrics: p.StoreMetrics,
	}
	if p.Notifier != nil {
		s.notifier = p.Notifier
	}
	return s
}

// Submit snapshots the cart lines as given. Prices are never looked up
// again; the total computed here is the order's total for good.
func (s *Service) Submit(ctx context.Context, req domain.SubmitRequest) (*domain.Order, error) {
	contact := normalizeContact(req.Contact)
	if err := validateSubmit(contact, req); err != nil {
		s.metrics.RecordOrderSubmitted(ctx, "invalid")
		return nil, err
	}

	items := make([]domain.LineItem, 0, len(req.Items))
	var total int64
	for _, line := range req.Items {
		item := domain.LineItem{
			ProductID:      line.ProductID,
			Name:           line.Name,
			UnitPriceCents: copyPrice(line.UnitPriceCents),
			Quantity:       line.Quantity,
			LineTotalCents: line.TotalCents(),
		}
		total += item.LineTotalCents
		items = append(items, item)
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:          s.genID.Generate(),
		ContactName: contact.Name,
		Email:       contact.Email,
		Phone:       contact.Phone,
		CompanyName: contact.CompanyName,
		Document:    contact.Document,
		Street:      contact.Street,
		Number:      contact.Number,
		Complement:  contact.Complement,
		District:    contact.District,
		City:        contact.City,
		State:       contact.State,
		PostalCode:  contact.PostalCode,
		Items:       datatypes.NewJSONSlice(items),
		TotalCents:  total,
		Status:      domain.StatusPending,
		Message:     strings.TrimSpace(req.Message),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	viewer := identity.ViewerFromContext(ctx)
	if viewer.Authenticated() {
		userID := viewer.UserID
		order.UserID = &userID
	}
	if viewer.HasClient() {
		clientID := viewer.ClientID
		order.ClientID = &clientID
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Insert(ctx, tx, order)
	})
	if err != nil {
		s.storeMetrics.RecordPersistenceError("order_insert", err)
		s.metrics.RecordOrderSubmitted(ctx, "error")
		obslogger.WithContext(ctx, s.log).Error("failed to store order", zap.Error(err))
		return nil, err
	}

	s.metrics.RecordOrderSubmitted(ctx, "ok")
	obslogger.WithContext(ctx, s.log).Info("order submitted",
		zap.String("order_id", order.ID.String()),
		zap.Int("lines", len(items)),
		zap.Int64("total_cents", total),
	)

	if s.notifier != nil {
		s.notifier.OrderPlaced(ctx, orderEmail(order))
	}
	return order, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	filter := domain.ListFilter{}
	if status := strings.TrimSpace(req.Status); status != "" {
		if !domain.Status(status).Valid() {
			return domain.ListResponse{}, domain.ErrInvalidStatus
		}
		filter.Status = domain.Status(status)
	}
	return s.list(ctx, filter, req)
}

// ListForClient returns the orders placed under the viewer's client.
func (s *Service) ListForClient(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	viewer := identity.ViewerFromContext(ctx)
	if !viewer.HasClient() {
		return domain.ListResponse{}, domain.ErrNoClient
	}
	return s.list(ctx, domain.ListFilter{ClientID: viewer.ClientID}, req)
}

func (s *Service) list(ctx context.Context, filter domain.ListFilter, req domain.ListRequest) (domain.ListResponse, error) {
	cursor, err := pagination.DecodeCursor(req.PageToken)
	if err != nil {
		return domain.ListResponse{}, err
	}
	limit := pagination.Pagination{PageSize: req.PageSize}.Limit()

	items, err := s.repo.List(ctx, s.db, filter, cursor, limit)
	if err != nil {
		return domain.ListResponse{}, err
	}

	items, pageInfo, err := pagination.Page(items, limit, func(o *domain.Order) pagination.Cursor {
		return pagination.Cursor{
			ID:        strconv.FormatInt(o.ID.Int64(), 10),
			CreatedAt: o.CreatedAt.Format(time.RFC3339),
		}
	})
	if err != nil {
		return domain.ListResponse{}, err
	}

	orders := make([]domain.Order, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		orders = append(orders, *item)
	}
	return domain.ListResponse{PageInfo: pageInfo, Orders: orders}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	orderID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	order, err := s.repo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

func (s *Service) UpdateStatus(ctx context.Context, req domain.UpdateStatusRequest) (*domain.Order, error) {
	orderID, err := parseID(req.ID)
	if err != nil {
		return nil, err
	}
	status := domain.Status(strings.ToLower(strings.TrimSpace(req.Status)))
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	updated, err := s.repo.UpdateStatus(ctx, s.db, orderID, status, time.Now().UTC())
	if err != nil {
		s.storeMetrics.RecordPersistenceError("order_status", err)
		return nil, err
	}
	if !updated {
		return nil, domain.ErrNotFound
	}

	s.log.Info("order status changed", zap.String("order_id", orderID.String()), zap.String("status", string(status)))
	return s.Get(ctx, req.ID)
}

func (s *Service) RenderPDF(ctx context.Context, id string) ([]byte, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.pdf.OrderSheet(ctx, s.orderSheet(order))
}

func (s *Service) orderSheet(o *domain.Order) pdf.OrderSheet {
	settings := s.settings.Get()
	sheet := pdf.OrderSheet{
		ShopName:    settings.ShopName,
		OrderNumber: o.ID.String(),
		PlacedAt:    o.CreatedAt.Format("02/01/2006 15:04"),
		Status:      string(o.Status),
		ContactName: o.ContactName,
		CompanyName: o.CompanyName,
		Email:       o.Email,
		Phone:       o.Phone,
		Document:    o.Document,
		Address:     formatAddress(o),
		Total:       email.FormatBRL(o.TotalCents),
		Message:     o.Message,
	}
	for _, item := range o.Items {
		unit := settings.OnRequestLabel
		if item.UnitPriceCents != nil {
			unit = email.FormatBRL(*item.UnitPriceCents)
		}
		sheet.Items = append(sheet.Items, pdf.OrderSheetItem{
			Name:      item.Name,
			Qty:       item.Quantity,
			UnitPrice: unit,
			Amount:    email.FormatBRL(item.LineTotalCents),
		})
	}
	return sheet
}

func orderEmail(o *domain.Order) email.OrderEmail {
	data := email.OrderEmail{
		OrderID:     o.ID.String(),
		ContactName: o.ContactName,
		CompanyName: o.CompanyName,
		Email:       o.Email,
		Phone:       o.Phone,
		TotalCents:  o.TotalCents,
		Message:     o.Message,
	}
	for _, item := range o.Items {
		data.Items = append(data.Items, email.OrderEmailItem{
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			LineTotalCents: item.LineTotalCents,
		})
	}
	return data
}

func formatAddress(o *domain.Order) string {
	parts := []string{}
	street := strings.TrimSpace(strings.Join(nonEmpty(o.Street, o.Number), ", "))
	if o.Complement != "" {
		street = strings.TrimSpace(street + " " + o.Complement)
	}
	parts = append(parts, nonEmpty(street, o.District)...)
	city := strings.Join(nonEmpty(o.City, o.State), "/")
	parts = append(parts, nonEmpty(city, o.PostalCode)...)
	return strings.Join(parts, " - ")
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func normalizeContact(c domain.Contact) domain.Contact {
	trim := strings.TrimSpace
	return domain.Contact{
		Name:        trim(c.Name),
		Email:       strings.ToLower(trim(c.Email)),
		Phone:       trim(c.Phone),
		CompanyName: trim(c.CompanyName),
		Document:    trim(c.Document),
		Street:      trim(c.Street),
		Number:      trim(c.Number),
		Complement:  trim(c.Complement),
		District:    trim(c.District),
		City:        trim(c.City),
		State:       trim(c.State),
		PostalCode:  trim(c.PostalCode),
	}
}

// validateSubmit reports every failing field at once.
func validateSubmit(c domain.Contact, req domain.SubmitRequest) error {
	var errs []error
	if len(req.Items) == 0 {
		errs = append(errs, domain.ErrEmptyCart)
	}
	for _, line := range req.Items {
		if line.Quantity < 1 || line.Quantity > cartdomain.MaxQuantity {
			errs = append(errs, domain.ErrInvalidQuantity)
			break
		}
	}
	if c.Name == "" {
		errs = append(errs, domain.ErrInvalidContactName)
	}
	if _, err := mail.ParseAddress(c.Email); c.Email == "" || err != nil {
		errs = append(errs, domain.ErrInvalidEmail)
	}
	if c.Phone == "" {
		errs = append(errs, domain.ErrInvalidPhone)
	}
	return errors.Join(errs...)
}

func copyPrice(v *int64) *int64 {
	if v == nil {
		return nil
	}
	price := *v
	return &price
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
