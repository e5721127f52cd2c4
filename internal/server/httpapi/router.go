// Package httpapi is the REST surface of the TaskLine server: chi routes
// under /api/v1, bearer-token authentication and the mapping from service
// errors to status codes.
package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/taskline/internal/logging"
	"github.com/dmitrijs2005/taskline/internal/server/mirror"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const (
	apiBasePath    = "/api/v1"
	usersBasePath  = "/users"
	loginBasePath  = "/login"
	tasksBasePath  = "/tasks"
	mirrorBasePath = "/mirror"
)

const (
	signupSubPath      = "/signup"
	meSubPath          = "/me"
	accessTokenSubPath = "/access-token"
	attachmentSubPath  = "/attachment"
)

const requestTimeout = 60 * time.Second

// Dependencies are the collaborators the router dispatches to.
type Dependencies struct {
	Users          UserService
	Tasks          TaskService
	Attachments    AttachmentService
	Guard          Authenticator
	Mirror         mirror.Gateway
	Logger         logging.Logger
	AllowedOrigins []string
	ProjectName    string
}

// NewRouter builds the HTTP handler.
func NewRouter(d Dependencies) http.Handler {
	log := d.Logger
	if log == nil {
		log = logging.Nop()
	}

	userHandler := NewUserHandler(d.Users)
	taskHandler := NewTaskHandler(d.Tasks, d.Attachments)
	mirrorHandler := NewMirrorHandler(d.Mirror)
	requireUser := RequireUser(log, d.Guard)
	h := func(fn AppHandler) http.HandlerFunc { return MakeHandler(log, fn) }

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Welcome to TaskLine API!"})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		RespondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy", "project": d.ProjectName})
	})

	r.Route(apiBasePath, func(r chi.Router) {
		r.Post(loginBasePath+accessTokenSubPath, h(userHandler.HandleLogin))

		r.Route(usersBasePath, func(r chi.Router) {
			r.Post(signupSubPath, h(userHandler.HandleSignup))

			r.Group(func(r chi.Router) {
				r.Use(requireUser)
				r.Get(meSubPath, h(userHandler.HandleReadMe))
				r.Patch(meSubPath, h(userHandler.HandleUpdateMe))
				r.Get(pathWithParam("", paramID), h(userHandler.HandleGetUser))
			})
		})

		r.Route(tasksBasePath, func(r chi.Router) {
			r.Use(requireUser)
			r.Post("/", h(taskHandler.HandleCreateTask))
			r.Get("/", h(taskHandler.HandleListTasks))
			r.Get(pathWithParam("", paramID), h(taskHandler.HandleGetTask))
			r.Patch(pathWithParam("", paramID), h(taskHandler.HandleUpdateTask))
			r.Delete(pathWithParam("", paramID), h(taskHandler.HandleDeleteTask))
			r.Post(pathWithParam("", paramID)+attachmentSubPath, h(taskHandler.HandleUploadAttachment))
			r.Get(pathWithParam("", paramID)+attachmentSubPath, h(taskHandler.HandleDownloadAttachment))
		})

		r.Route(mirrorBasePath, func(r chi.Router) {
			r.Get(usersBasePath, h(mirrorHandler.HandleListUsers))
			r.Get(pathWithParam(usersBasePath, paramID), h(mirrorHandler.HandleGetUser))
			r.Get(tasksBasePath, h(mirrorHandler.HandleListTasks))
			r.Get(pathWithParam(tasksBasePath, paramID), h(mirrorHandler.HandleGetTask))
		})
	})

	return r
}

func pathWithParam(basePath string, paramName string) string {
	if basePath == "" {
		return "/{" + paramName + "}"
	}
	return basePath + "/{" + paramName + "}"
}
