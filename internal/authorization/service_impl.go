package authorization

import (
	"context"
	_ "embed"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/smallbiznis/confeitaria/internal/identity"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectProduct     = "product"
	ObjectClient      = "client"
	ObjectClientPrice = "client_price"
	ObjectOrder       = "order"
	ObjectQuote       = "quote"
	ObjectContact     = "contact"
	ObjectNewsletter  = "newsletter"
	ObjectHomepage    = "homepage"
	ObjectZoho        = "zoho"
	ObjectPortal      = "portal"
	ObjectAudit       = "audit"
)

const (
	ActionProductManage = "product.manage"

	ActionClientView   = "client.view"
	ActionClientManage = "client.manage"

	ActionClientPriceManage = "client_price.manage"

	ActionOrderView    = "order.view"
	ActionOrderManage  = "order.manage"
	ActionOrderViewOwn = "order.view_own"

	ActionQuoteView   = "quote.view"
	ActionQuoteManage = "quote.manage"

	ActionContactView    = "contact.view"
	ActionNewsletterView = "newsletter.view"

	ActionHomepageRevalidate = "homepage.revalidate"

	ActionZohoConnect = "zoho.connect"

	ActionPortalView          = "portal.view"
	ActionPortalUpdateProfile = "portal.update_profile"

	ActionAuditView = "audit.view"
)

const (
	roleAdmin     = "role:admin"
	roleClient    = "role:client"
	roleAnonymous = "role:anonymous"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer loads persisted policies through the gorm adapter and seeds
// the built-in role grants.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	return enforcer, nil
}

// NewMemoryEnforcer builds an enforcer without persistence.
func NewMemoryEnforcer() (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, object string, action string) error {
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject, err := subjectFor(identity.ViewerFromContext(ctx))
	if err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("subject", subject),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func subjectFor(v identity.Viewer) (string, error) {
	if !v.Authenticated() {
		return roleAnonymous, nil
	}
	switch v.Role {
	case identity.RoleAdmin:
		return roleAdmin, nil
	case identity.RoleClient:
		return roleClient, nil
	default:
		return "", ErrInvalidActor
	}
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		{roleAdmin, "*", "*"},

		{roleClient, ObjectPortal, ActionPortalView},
		{roleClient, ObjectPortal, ActionPortalUpdateProfile},
		{roleClient, ObjectOrder, ActionOrderViewOwn},
	}
	for _, rule := range policies {
		has, err := enforcer.HasPolicy(rule[0], rule[1], rule[2])
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddPolicy(rule[0], rule[1], rule[2]); err != nil {
			return err
		}
	}
	return nil
}

var Module = fx.Module("authorization",
	fx.Provide(NewEnforcer),
	fx.Provide(NewService),
)
