package service

import (
	"context"
	"sync"
	"testing"

	"turna/internal/modkit/gate"
	"turna/internal/modkit/repokit"
	perr "turna/internal/platform/errors"
	auditdom "turna/internal/services/audit/domain"
	"turna/internal/services/tenants/domain"
)

type fakeTx struct{ txs int }

func (f *fakeTx) Exec(ctx context.Context, sql string, args ...any) (repokit.CommandTag, error) {
	return nil, nil
}
func (f *fakeTx) Query(ctx context.Context, sql string, args ...any) (repokit.Rows, error) {
	return nil, nil
}
func (f *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) repokit.Row { return nil }
func (f *fakeTx) Tx(ctx context.Context, fn func(q repokit.Queryer) error) error {
	f.txs++
	return fn(f)
}

type fakeRepo struct {
	domain.Repo // panic on anything not overridden

	tenants   map[string]domain.Tenant
	hospitals map[string]domain.Hospital
	founders  []domain.Founder
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		tenants:   map[string]domain.Tenant{},
		hospitals: map[string]domain.Hospital{},
	}
}

func (f *fakeRepo) InsertTenant(_ context.Context, t domain.Tenant) error {
	f.tenants[t.ID] = t
	return nil
}

func (f *fakeRepo) GetTenant(_ context.Context, id string) (domain.Tenant, error) {
	t, ok := f.tenants[id]
	if !ok {
		return domain.Tenant{}, perr.NotFoundf("tenant not found")
	}
	return t, nil
}

func (f *fakeRepo) UpdateTenant(_ context.Context, t domain.Tenant) error {
	if _, ok := f.tenants[t.ID]; !ok {
		return perr.NotFoundf("tenant not found")
	}
	f.tenants[t.ID] = t
	return nil
}

func (f *fakeRepo) InsertFounder(_ context.Context, fd domain.Founder) error {
	f.founders = append(f.founders, fd)
	return nil
}

func (f *fakeRepo) GetHospital(_ context.Context, tenantID, id string) (domain.Hospital, error) {
	h, ok := f.hospitals[id]
	if !ok || h.TenantID != tenantID {
		return domain.Hospital{}, perr.NotFoundf("hospital not found")
	}
	return h, nil
}

func (f *fakeRepo) InsertHospital(_ context.Context, h domain.Hospital) error {
	f.hospitals[h.ID] = h
	return nil
}

func (f *fakeRepo) UpdateHospital(_ context.Context, h domain.Hospital) error {
	f.hospitals[h.ID] = h
	return nil
}

func (f *fakeRepo) DeleteHospital(_ context.Context, tenantID, id string) (bool, error) {
	h, ok := f.hospitals[id]
	if !ok || h.TenantID != tenantID {
		return false, nil
	}
	delete(f.hospitals, id)
	return true, nil
}

type fakeAudit struct {
	mu     sync.Mutex
	events []auditdom.Event
}

func (f *fakeAudit) Emit(_ context.Context, ev auditdom.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func binderFor(r domain.Repo) repokit.Binder[domain.Repo] {
	return repokit.BindFunc[domain.Repo](func(repokit.Queryer) domain.Repo { return r })
}

func admin() gate.Caller {
	return gate.Caller{AccountID: "acc-1", TenantID: "ten-1", MemberID: "mem-1", Role: gate.RoleAdmin}
}

func member() gate.Caller {
	return gate.Caller{AccountID: "acc-2", TenantID: "ten-1", MemberID: "mem-2", Role: gate.RoleMember}
}

func TestCreateTenantBootstrapsFounder(t *testing.T) {
	repo := newFakeRepo()
	tx := &fakeTx{}
	audit := &fakeAudit{}
	svc := New(tx, binderFor(repo), audit)

	caller := gate.Caller{AccountID: "acc-1"} // account-stage token
	out, err := svc.CreateTenant(context.Background(), caller, domain.CreateTenantInput{
		Name:     " Santa Casa ",
		Timezone: "America/Sao_Paulo",
		Locale:   "pt-BR",
		Currency: "brl",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if out.ID == "" || out.Name != "Santa Casa" || out.Currency != "BRL" {
		t.Fatalf("tenant normalized badly: %+v", out)
	}
	if tx.txs != 1 {
		t.Fatalf("bootstrap must be one transaction, got %d", tx.txs)
	}
	if len(repo.founders) != 1 {
		t.Fatalf("founder rows = %d", len(repo.founders))
	}
	fd := repo.founders[0]
	if fd.TenantID != out.ID || fd.AccountID != "acc-1" {
		t.Fatalf("founder mis-linked: %+v", fd)
	}
	if len(audit.events) != 1 || audit.events[0].Type != auditdom.EventTenantCreated {
		t.Fatalf("audit events %+v", audit.events)
	}
}

func TestCreateTenantRejectsBadZoneAndLocale(t *testing.T) {
	svc := New(&fakeTx{}, binderFor(newFakeRepo()), &fakeAudit{})

	_, err := svc.CreateTenant(context.Background(), admin(), domain.CreateTenantInput{
		Name: "X", Timezone: "Mars/Olympus", Locale: "pt-BR", Currency: "BRL",
	})
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("bad zone: %v", err)
	}

	_, err = svc.CreateTenant(context.Background(), admin(), domain.CreateTenantInput{
		Name: "X", Timezone: "UTC", Locale: "!!", Currency: "BRL",
	})
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("bad locale: %v", err)
	}
}

func TestUpdateTenantIsAdminOnly(t *testing.T) {
	repo := newFakeRepo()
	repo.tenants["ten-1"] = domain.Tenant{ID: "ten-1", Name: "T", Timezone: "UTC", Locale: "en", Currency: "USD"}
	svc := New(&fakeTx{}, binderFor(repo), &fakeAudit{})

	_, err := svc.UpdateTenant(context.Background(), member(), domain.UpdateTenantInput{})
	if !perr.IsCode(err, perr.ErrorCodeForbidden) {
		t.Fatalf("member update: %v", err)
	}

	name := "Renamed"
	out, err := svc.UpdateTenant(context.Background(), admin(), domain.UpdateTenantInput{Name: &name})
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if out.Name != "Renamed" || out.Currency != "USD" {
		t.Fatalf("patch semantics broken: %+v", out)
	}
}

func TestHospitalLifecycle(t *testing.T) {
	repo := newFakeRepo()
	svc := New(&fakeTx{}, binderFor(repo), &fakeAudit{})
	ctx := context.Background()

	h, err := svc.CreateHospital(ctx, admin(), domain.CreateHospitalInput{Name: "Central", Color: "#112233"})
	if err != nil {
		t.Fatalf("create hospital: %v", err)
	}
	if h.TenantID != "ten-1" {
		t.Fatalf("hospital tenant %q", h.TenantID)
	}

	prompt := "extract the surgical map"
	got, err := svc.UpdateHospital(ctx, admin(), h.ID, domain.UpdateHospitalInput{Prompt: &prompt})
	if err != nil {
		t.Fatalf("update hospital: %v", err)
	}
	if got.Prompt != prompt || got.Name != "Central" {
		t.Fatalf("patch lost fields: %+v", got)
	}

	if _, err := svc.CreateHospital(ctx, member(), domain.CreateHospitalInput{Name: "Nope"}); !perr.IsCode(err, perr.ErrorCodeForbidden) {
		t.Fatalf("member create: %v", err)
	}

	if err := svc.DeleteHospital(ctx, admin(), h.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteHospital(ctx, admin(), h.ID); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("double delete: %v", err)
	}
}
