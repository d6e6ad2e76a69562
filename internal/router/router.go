// Package router binds the HTTP surface to the handlers.
package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/craftyclassroom/classroom-api/internal/handler"
	"github.com/craftyclassroom/classroom-api/internal/middleware"
	"github.com/craftyclassroom/classroom-api/internal/policy"
	"github.com/craftyclassroom/classroom-api/internal/repository"
	"github.com/craftyclassroom/classroom-api/internal/service"
	"github.com/craftyclassroom/classroom-api/pkg/logger"
	corsmiddleware "github.com/craftyclassroom/classroom-api/pkg/middleware/cors"
	reqidmiddleware "github.com/craftyclassroom/classroom-api/pkg/middleware/requestid"
)

// Deps carries everything the route layer needs. It is assembled once at
// startup.
type Deps struct {
	Logger         *zap.Logger
	Policy         *policy.Policy
	Store          *repository.Store
	Tokens         *service.TokenService
	Users          *service.UserService
	Classes        *service.ClassService
	Enrollments    *service.EnrollmentService
	Metrics        *service.MetricsService
	AllowedOrigins []string
	PaymentKey     string
	EnableDocs     bool
}

type registrar struct {
	engine     *gin.Engine
	policy     *policy.Policy
	gate       gin.HandlerFunc
	registered map[policy.Route]struct{}
}

// handle registers a route, putting the gate in front of it when the policy
// lists it.
func (r *registrar) handle(method, path string, h gin.HandlerFunc) {
	r.registered[policy.Route{Method: method, Path: path}] = struct{}{}
	if r.policy.Protects(method, path) {
		r.engine.Handle(method, path, r.gate, h)
		return
	}
	r.engine.Handle(method, path, h)
}

// New builds the engine. Policy entries that do not name a registered route
// are reported as an error so a typo cannot silently leave a route open.
func New(deps Deps) (*gin.Engine, error) {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(reqidmiddleware.Middleware())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Metrics(deps.Metrics))
	engine.Use(corsmiddleware.New(deps.AllowedOrigins))

	system := handler.NewSystemHandler(deps.Store, deps.Metrics, log)
	engine.GET("/health", system.Health)
	engine.GET("/ready", system.Ready)
	engine.GET("/metrics", system.Prometheus)
	if deps.EnableDocs {
		engine.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r := &registrar{
		engine:     engine,
		policy:     deps.Policy,
		gate:       middleware.Gate(deps.Tokens),
		registered: make(map[policy.Route]struct{}),
	}

	auth := handler.NewAuthHandler(deps.Tokens)
	users := handler.NewUserHandler(deps.Users, log)
	classes := handler.NewClassHandler(deps.Classes)
	enrollments := handler.NewEnrollmentHandler(deps.Enrollments)
	payments := handler.NewPaymentHandler(deps.PaymentKey, log)

	r.handle(http.MethodGet, "/", system.Root)
	r.handle(http.MethodPost, "/jwt", auth.Issue)

	r.handle(http.MethodGet, "/users", users.List)
	r.handle(http.MethodGet, "/manageUsers", users.Manage)
	r.handle(http.MethodGet, "/allinstructors", users.Instructors)
	r.handle(http.MethodGet, "/sixInstructors", users.SixInstructors)
	r.handle(http.MethodGet, "/threeStudents", users.ThreeStudents)
	r.handle(http.MethodPost, "/users", users.Create)
	r.handle(http.MethodPatch, "/updateRole/:id", users.UpdateRole)

	r.handle(http.MethodGet, "/allclasses", classes.List)
	r.handle(http.MethodGet, "/allclasses/:id", classes.Get)
	r.handle(http.MethodPut, "/allclasses/:id", classes.Update)
	r.handle(http.MethodPatch, "/updateClassStatus/:id", classes.UpdateStatus)
	r.handle(http.MethodPatch, "/updateFeedback/:id", classes.UpdateFeedback)
	r.handle(http.MethodGet, "/approvedClasses", classes.Approved)
	r.handle(http.MethodGet, "/popularClasses", classes.Popular)
	r.handle(http.MethodPost, "/newClass", classes.Create)

	r.handle(http.MethodGet, "/studentsData", enrollments.List)
	r.handle(http.MethodGet, "/studentsData/export", enrollments.Export)
	r.handle(http.MethodPost, "/studentsData", enrollments.Create)
	r.handle(http.MethodGet, "/selectedClasses", enrollments.Selected)
	r.handle(http.MethodGet, "/selectedClasses/:id", enrollments.Get)
	r.handle(http.MethodDelete, "/selectedClasses/:id", enrollments.Delete)
	r.handle(http.MethodGet, "/enrolledClasses", enrollments.Enrolled)
	r.handle(http.MethodGet, "/payment/:id", enrollments.Get)

	r.handle(http.MethodPost, "/create-payment-intent", payments.CreateIntent)

	for _, route := range deps.Policy.Routes() {
		if _, ok := r.registered[route]; !ok {
			return nil, fmt.Errorf("protected route %s is not registered", route)
		}
	}
	return engine, nil
}
