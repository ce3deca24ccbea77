package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ogurasousui/codex-timesheet-api/internal/adapters/http/middleware"
	"github.com/ogurasousui/codex-timesheet-api/internal/adapters/http/respond"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/approval"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/client"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/department"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/employee"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/errkind"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/project"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/timesheet"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/user"
)

const healthCheckTimeout = 2 * time.Second

// ErrUnhealthy はストアへの疎通確認に失敗したことを表します。
var ErrUnhealthy = errkind.Wrap(errkind.ErrStore, "health: store is unreachable")

// Tokens はトークンの発行と検証を行います。
type Tokens interface {
	TokenIssuer
	middleware.TokenVerifier
}

// Pinger はストアへの疎通確認を行います。
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies はルータが必要とするユースケースと共通部品です。
type Dependencies struct {
	Timesheets  timesheet.UseCase
	Entries     timesheet.EntryUseCase
	Approvals   approval.UseCase
	Employees   employee.UseCase
	Departments department.UseCase
	Clients     client.UseCase
	Projects    project.UseCase
	Users       user.UseCase
	Tokens      Tokens
	Pinger      Pinger
	Metrics     *middleware.Metrics
	Logger      zerolog.Logger
}

// NewRouter は REST API のルーティングを組み立てます。
// /api 配下は認証とサインアップを除き Bearer トークンが必要です。
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.AccessLog(deps.Logger)...)
	r.Use(chimw.Recoverer)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler)
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Exposition())
	}

	r.Get("/healthz", healthz(deps.Pinger))

	authH := NewAuthHandler(deps.Users, deps.Tokens)
	userH := NewUserHandler(deps.Users)
	timesheetH := NewTimesheetHandler(deps.Timesheets)
	entryH := NewEntryHandler(deps.Entries)
	approvalH := NewApprovalHandler(deps.Approvals)
	employeeH := NewEmployeeHandler(deps.Employees)
	departmentH := NewDepartmentHandler(deps.Departments)
	clientH := NewClientHandler(deps.Clients)
	projectH := NewProjectHandler(deps.Projects)

	admin := middleware.RequireRole(user.RoleAdmin)
	supervisor := middleware.RequireRole(user.RoleAdmin, user.RoleManager)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", authH.Signup)
		r.Post("/auth/login", authH.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticator(deps.Tokens))

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", userH.Me)
				r.With(admin).Post("/", authH.CreateUser)
				r.With(admin).Get("/{id}", userH.Get)
				r.With(admin).Put("/{id}/status", userH.UpdateStatus)
			})

			r.Route("/timesheets", func(r chi.Router) {
				r.Post("/", timesheetH.Create)
				r.Post("/with-entries", timesheetH.CreateWithEntries)
				r.With(supervisor).Get("/", timesheetH.List)
				r.Get("/user", timesheetH.ListMine)
				r.With(supervisor).Get("/employee/{employeeId}", timesheetH.ListByEmployee)
				r.Get("/{id}", timesheetH.Get)
				r.Get("/{id}/detail", timesheetH.GetDetail)
				r.Put("/{id}", timesheetH.Update)
				r.Put("/{id}/with-entries", timesheetH.UpdateWithEntries)
				r.With(supervisor).Delete("/{id}", timesheetH.Delete)
			})

			r.Route("/timesheet-entries", func(r chi.Router) {
				r.Post("/", entryH.Create)
				r.Get("/", entryH.List)
				r.Get("/timesheet/{timesheetId}", entryH.ListByTimesheet)
				r.Get("/{id}", entryH.Get)
				r.Put("/{id}", entryH.Update)
				r.Delete("/{id}", entryH.Delete)
			})

			r.Route("/approvals", func(r chi.Router) {
				r.With(supervisor).Post("/", approvalH.Create)
				r.With(supervisor).Get("/", approvalH.List)
				r.Get("/my-approvals", approvalH.ListMine)
				r.Get("/timesheet/{timesheetId}", approvalH.ListByTimesheet)
				r.With(supervisor).Get("/approver/{employeeId}", approvalH.ListByApprover)
				r.Get("/{id}", approvalH.Get)
				r.With(supervisor).Put("/{id}", approvalH.Update)
				r.With(admin).Delete("/{id}", approvalH.Delete)
			})

			r.Route("/employees", func(r chi.Router) {
				r.Get("/", employeeH.List)
				r.Get("/{id}", employeeH.Get)
				r.With(admin).Post("/", employeeH.Create)
				r.With(admin).Put("/{id}", employeeH.Update)
				r.With(admin).Delete("/{id}", employeeH.Delete)
			})

			r.Route("/departments", func(r chi.Router) {
				r.Get("/", departmentH.List)
				r.Get("/{id}", departmentH.Get)
				r.With(admin).Post("/", departmentH.Create)
				r.With(admin).Put("/{id}", departmentH.Update)
				r.With(admin).Delete("/{id}", departmentH.Delete)
			})

			r.Route("/clients", func(r chi.Router) {
				r.Get("/", clientH.List)
				r.Get("/{id}", clientH.Get)
				r.With(supervisor).Post("/", clientH.Create)
				r.With(supervisor).Put("/{id}", clientH.Update)
				r.With(admin).Delete("/{id}", clientH.Delete)
			})

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", projectH.List)
				r.Get("/{id}", projectH.Get)
				r.Get("/{id}/tasks", projectH.ListTasks)
				r.With(supervisor).Post("/", projectH.Create)
				r.With(supervisor).Put("/{id}", projectH.Update)
				r.With(supervisor).Delete("/{id}", projectH.Delete)
				r.With(supervisor).Post("/{id}/tasks", projectH.CreateTask)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/{id}", projectH.GetTask)
				r.With(supervisor).Put("/{id}", projectH.UpdateTask)
				r.With(supervisor).Delete("/{id}", projectH.DeleteTask)
			})
		})
	})

	return r
}

func healthz(pinger Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pinger != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			defer cancel()
			if err := pinger.Ping(ctx); err != nil {
				respond.Error(w, r, fmt.Errorf("%w: %v", ErrUnhealthy, err))
				return
			}
		}
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
