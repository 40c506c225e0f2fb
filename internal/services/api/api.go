// Package api composes every service module into the HTTP surface
package api

import (
	"context"

	"turna/internal/platform/blob"
	"turna/internal/platform/config"
	perr "turna/internal/platform/errors"
	"turna/internal/platform/logger"
	"turna/internal/platform/metrics"
	phttp "turna/internal/platform/net/http"
	"turna/internal/platform/store"
	ptime "turna/internal/platform/time"

	"turna/internal/modkit"
	"turna/internal/modkit/httpkit"
	"turna/internal/modkit/module"
	"turna/internal/modkit/swaggerkit"

	"turna/internal/adapters/render"
	"turna/internal/adapters/thumb"
	auditrepo "turna/internal/services/audit/repo"
	auditsvc "turna/internal/services/audit/service"
	demandsmod "turna/internal/services/demands/module"
	demandsrepo "turna/internal/services/demands/repo"
	demandssvc "turna/internal/services/demands/service"
	filesmod "turna/internal/services/files/module"
	filesrepo "turna/internal/services/files/repo"
	filessvc "turna/internal/services/files/service"
	identmod "turna/internal/services/identity/module"
	identrepo "turna/internal/services/identity/repo"
	identsvc "turna/internal/services/identity/service"
	"turna/internal/services/identity/token"
	jobsdom "turna/internal/services/jobs/domain"
	jobsmod "turna/internal/services/jobs/module"
	jobsrepo "turna/internal/services/jobs/repo"
	jobssvc "turna/internal/services/jobs/service"
	schedmod "turna/internal/services/schedule/module"
	schedrepo "turna/internal/services/schedule/repo"
	schedsvc "turna/internal/services/schedule/service"
	tenantsmod "turna/internal/services/tenants/module"
	tenantsrepo "turna/internal/services/tenants/repo"
	tenantssvc "turna/internal/services/tenants/service"
)

// Options are the API options
type Options struct {
	Config config.Conf
	Store  *store.Store
	Logger *logger.Logger

	// external collaborators, owned by the binary
	Blobs  blob.Store
	Broker jobsdom.Broker

	EnableSwagger  bool
	EnableProfiler bool
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	deps := modkit.Deps{
		Cfg: opt.Config,
		PG:  opt.Store.PG,
		CH:  opt.Store.CH,
	}
	clock := ptime.SystemClock{}

	// session tokens; the codec doubles as the bearer auth port
	codec := token.New(
		opt.Config.MustString("AUTH_SECRET"),
		opt.Config.MayDuration("AUTH_TTL", token.DefaultTTL),
	)
	authPort := httpkit.NewPortFunc(codec.Verify)

	audit := auditsvc.New(deps.PG, auditrepo.NewPG(), deps.CH)
	identity := identsvc.New(deps.PG, identrepo.NewPG(), codec, audit)
	tenants := tenantssvc.New(deps.PG, tenantsrepo.NewPG(), audit)

	// tenant-scoped tokens outlive tenant deletion; re-check on every request
	tenancy := httpkit.TenancyFunc(func(ctx context.Context, tenantID string) error {
		if _, err := tenants.Load(ctx, tenantID); err != nil {
			return perr.Unauthorizedf("tenant is not available")
		}
		return nil
	})

	files := filessvc.New(deps.PG, filesrepo.NewPG(), opt.Blobs, thumb.New(), audit,
		int64(opt.Config.MayInt("FILES_MAX_BYTES", 0)))
	demands := demandssvc.New(deps.PG, demandsrepo.NewPG())
	jobs := jobssvc.New(deps.PG, jobsrepo.NewPG(), opt.Broker, audit, clock, jobssvc.FromConfig(opt.Config))
	sched := schedsvc.New(deps.PG, schedrepo.NewPG(), identity, tenants, opt.Blobs,
		render.New(), audit, clock, schedsvc.FromConfig(opt.Config))

	authMod := identmod.NewAuth(deps, identity, authPort)
	protected := []module.Module{
		identmod.NewMembers(deps, identity),
		tenantsmod.New(deps, tenants),
		tenantsmod.NewHospitals(deps, tenants),
		filesmod.New(deps, files),
		demandsmod.New(deps, demands),
		jobsmod.New(deps, jobs),
		schedmod.New(deps, sched, jobs),
	}

	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)
		r.Handle("/metrics", metrics.Handler())

		// sign-in must stay reachable without a token
		module.Register(authMod.Name(), authMod.Ports())
		authMod.MountRoutes(api)

		httpkit.Protected(api, authPort, func(p httpkit.Router) {
			p.Use(httpkit.Tenancy(tenancy, phttp.JSON))
			for _, m := range protected {
				module.Register(m.Name(), m.Ports())
				m.MountRoutes(p)
			}
		})
	})
}
