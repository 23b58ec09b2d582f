// internal/app/system/access/access.go
package access

import (
	"context"
	"errors"

	agencystore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/agencies"
	permissionstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/permissions"
	sidebaroptionstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/sidebaroptions"
	subaccountstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/subaccounts"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/domain/models"
)

var (
	// ErrNoAgency means the user has not been bound to an agency yet, so
	// no scope can be resolved for them.
	ErrNoAgency = errors.New("user is not bound to an agency")

	// ErrNoAccess means the user holds no access grant for the requested
	// sub-account.
	ErrNoAccess = errors.New("no access to this sub-account")
)

// DefaultLogo is shown when neither the agency nor the sub-account has
// uploaded one.
const DefaultLogo = "/assets/plura-logo.svg"

// Service answers visibility questions: which sub-accounts a user may see,
// what their sidebar contains, and which logo brands it.
type Service struct {
	agencies       *agencystore.Store
	subAccounts    *subaccountstore.Store
	permissions    *permissionstore.Store
	sidebarOptions *sidebaroptionstore.Store
}

// New creates an access Service.
func New(agencies *agencystore.Store, subAccounts *subaccountstore.Store, permissions *permissionstore.Store, sidebarOptions *sidebaroptionstore.Store) *Service {
	return &Service{
		agencies:       agencies,
		subAccounts:    subAccounts,
		permissions:    permissions,
		sidebarOptions: sidebarOptions,
	}
}

// VisibleSubAccounts returns the sub-accounts a user may see: exactly
// those they hold an access=true permission for. Roles grant nothing here;
// owners see their sub-accounts because creating one seeds them a grant.
func (s *Service) VisibleSubAccounts(ctx context.Context, user models.User) ([]models.SubAccount, error) {
	if user.AgencyID == "" {
		return nil, ErrNoAgency
	}

	ids, err := s.permissions.GrantedSubAccountIDs(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	subs, err := s.subAccounts.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	// Grants can outlive a move between agencies; keep only the
	// sub-accounts of the user's current agency.
	out := subs[:0]
	for _, sub := range subs {
		if sub.AgencyID == user.AgencyID {
			out = append(out, sub)
		}
	}
	return out, nil
}

// CanAccessSubAccount reports whether a user may open a sub-account. The
// sub-account must belong to the user's agency and the user must hold an
// access=true permission for it, whatever their role.
func (s *Service) CanAccessSubAccount(ctx context.Context, user models.User, sub models.SubAccount) (bool, error) {
	if user.AgencyID == "" || sub.AgencyID != user.AgencyID {
		return false, nil
	}
	return s.permissions.HasAccess(ctx, user.Email, sub.ID)
}

// Sidebar is the resolved navigation for one scope.
type Sidebar struct {
	Logo    string                 `json:"logo"`
	Options []models.SidebarOption `json:"options"`
}

// AgencySidebar returns the sidebar for a user's agency dashboard.
func (s *Service) AgencySidebar(ctx context.Context, user models.User) (Sidebar, error) {
	if user.AgencyID == "" {
		return Sidebar{}, ErrNoAgency
	}
	agency, err := s.agencies.GetByID(ctx, user.AgencyID)
	if err != nil {
		return Sidebar{}, err
	}
	opts, err := s.sidebarOptions.ListByAgency(ctx, agency.ID)
	if err != nil {
		return Sidebar{}, err
	}
	return Sidebar{
		Logo:    ResolveSidebarLogo(agency, nil),
		Options: opts,
	}, nil
}

// SubAccountSidebar returns the sidebar for a sub-account dashboard. The
// user must be able to access the sub-account.
func (s *Service) SubAccountSidebar(ctx context.Context, user models.User, subAccountID string) (Sidebar, error) {
	sub, err := s.subAccounts.GetByID(ctx, subAccountID)
	if err != nil {
		return Sidebar{}, err
	}

	ok, err := s.CanAccessSubAccount(ctx, user, sub)
	if err != nil {
		return Sidebar{}, err
	}
	if !ok {
		return Sidebar{}, ErrNoAccess
	}

	agency, err := s.agencies.GetByID(ctx, sub.AgencyID)
	if err != nil {
		return Sidebar{}, err
	}
	opts, err := s.sidebarOptions.ListBySubAccount(ctx, sub.ID)
	if err != nil {
		return Sidebar{}, err
	}
	return Sidebar{
		Logo:    ResolveSidebarLogo(agency, &sub),
		Options: opts,
	}, nil
}

// ResolveSidebarLogo picks the logo for a scope. A white-labeled agency
// brands every scope with its own logo. Otherwise a sub-account scope
// prefers the sub-account's logo, then the agency's. Missing logos fall
// back to the stock one.
func ResolveSidebarLogo(agency models.Agency, sub *models.SubAccount) string {
	if sub != nil && !agency.WhiteLabel {
		if sub.HasLogo() {
			return sub.SubAccountLogo
		}
	}
	if agency.AgencyLogo != "" {
		return agency.AgencyLogo
	}
	return DefaultLogo
}
