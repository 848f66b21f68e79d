package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"loveletter/internal/app"
	"loveletter/internal/config"
	"loveletter/internal/contact"
	"loveletter/internal/httputil"
	"loveletter/internal/letter"
	"loveletter/internal/ratelimit"
	"loveletter/internal/web"
)

const (
	maxJSONBody = 64 << 10
	maxFormBody = 64 << 10
)

type generateRequest struct {
	Description string `json:"description"`
}

type generateResponse struct {
	Letter string `json:"letter"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx)
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			deps.Log.Warn("failed to close dependencies", "err", err)
		}
	}()

	handler, err := newRouter(deps)
	if err != nil {
		deps.Log.Error("failed to build router", "err", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Port)
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			deps.Log.Error("graceful shutdown failed", "err", err)
		}
	}()

	deps.Log.Info("web listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		deps.Log.Error("server failed", "err", err)
	}
}

func newRouter(deps app.Deps) (http.Handler, error) {
	renderer, err := web.NewRenderer(web.Site{
		SupportURL:   deps.Config.SupportURL,
		ContactEmail: deps.Config.ContactEmail,
		SocialHandle: deps.Config.SocialHandle,
	}, deps.Config.MaxDescription)
	if err != nil {
		return nil, err
	}

	r := httputil.NewRouter(deps.Log, requestTimeout(deps.Config))

	r.Get("/", pageHandler(deps, renderer, web.PageHome))
	r.Get("/about", pageHandler(deps, renderer, web.PageAbout))
	r.Get("/contact", pageHandler(deps, renderer, web.PageContact))
	r.Post("/contact", contactFormHandler(deps, renderer))
	r.Handle("/static/*", web.StaticHandler())
	r.Get("/healthz", httputil.HealthHandler(deps.Log))

	r.With(ratelimit.Middleware(deps.Limiter, deps.TrustedProxies, deps.Log, limitedFormHandler(deps, renderer))).
		Post("/", generateFormHandler(deps, renderer))
	r.With(ratelimit.Middleware(deps.Limiter, deps.TrustedProxies, deps.Log, nil)).
		Post("/api/letters", generateHandler(deps))
	r.Post("/api/contact", contactHandler(deps))

	return r, nil
}

// requestTimeout leaves room for a full generation call on top of the router default.
func requestTimeout(cfg config.Config) time.Duration {
	if t := cfg.GenerateTimeout + 15*time.Second; t > httputil.DefaultRequestTimeout {
		return t
	}
	return httputil.DefaultRequestTimeout
}

func render(deps app.Deps, w http.ResponseWriter, renderer *web.Renderer, status int, data web.PageData) {
	if err := renderer.Render(w, status, data); err != nil {
		httputil.Fail(deps.Log, w, "failed to render page", err, http.StatusInternalServerError)
	}
}

func pageHandler(deps app.Deps, renderer *web.Renderer, page string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(deps, w, renderer, http.StatusOK, renderer.Data(page))
	}
}

// generateHandler is the JSON endpoint used by the page script.
func generateHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := httputil.DecodeJSON(w, r, maxJSONBody, &req); err != nil {
			httputil.FailJSON(deps.Log, w, err.Error(), err, http.StatusBadRequest)
			return
		}

		text, err := deps.Letters.Generate(r.Context(), req.Description)
		if err != nil {
			httputil.FailJSON(deps.Log, w, letter.UserMessage(err), err, generateStatus(err))
			return
		}
		httputil.WriteJSON(w, http.StatusOK, generateResponse{Letter: text})
	}
}

// generateFormHandler serves browsers without JavaScript: the form posts back to
// the home page, which is re-rendered with the outcome.
func generateFormHandler(deps app.Deps, renderer *web.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
		if err := r.ParseForm(); err != nil {
			httputil.Fail(deps.Log, w, "invalid form submission", err, http.StatusBadRequest)
			return
		}

		data := renderer.Data(web.PageHome)
		data.Letter.Description = r.PostForm.Get("description")
		status := http.StatusOK
		data.Letter.Run(func(description string) (string, error) {
			text, err := deps.Letters.Generate(r.Context(), description)
			if err != nil {
				status = generateStatus(err)
			}
			return text, err
		})
		render(deps, w, renderer, status, data)
	}
}

// limitedFormHandler re-renders the home page with the rate limit message,
// keeping what the user typed.
func limitedFormHandler(deps app.Deps, renderer *web.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
		data := renderer.Data(web.PageHome)
		if err := r.ParseForm(); err == nil {
			data.Letter.Description = r.PostForm.Get("description")
		}
		data.Letter.Fail(ratelimit.Message)
		render(deps, w, renderer, http.StatusTooManyRequests, data)
	}
}

func generateStatus(err error) int {
	switch {
	case errors.Is(err, letter.ErrEmptyDescription), errors.Is(err, letter.ErrDescriptionTooLong):
		return http.StatusBadRequest
	case errors.Is(err, letter.ErrAPIKeyMissing):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func contactHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form contact.Form
		if err := httputil.DecodeJSON(w, r, maxJSONBody, &form); err != nil {
			httputil.FailJSON(deps.Log, w, err.Error(), err, http.StatusBadRequest)
			return
		}

		msg, err := deps.Contacts.Submit(r.Context(), form)
		var verr *contact.ValidationError
		switch {
		case errors.As(err, &verr):
			deps.Log.Warn("invalid contact submission", "fields", verr.Fields)
			httputil.WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":  "invalid contact form",
				"fields": verr.Fields,
			})
		case err != nil:
			httputil.FailJSON(deps.Log, w, "failed to send message; please retry", err, http.StatusInternalServerError)
		default:
			httputil.WriteJSON(w, http.StatusAccepted, map[string]any{
				"id":     msg.ID.String(),
				"status": msg.Status,
			})
		}
	}
}

func contactFormHandler(deps app.Deps, renderer *web.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
		if err := r.ParseForm(); err != nil {
			httputil.Fail(deps.Log, w, "invalid form submission", err, http.StatusBadRequest)
			return
		}
		form := contact.Form{
			Name:    r.PostForm.Get("name"),
			Email:   r.PostForm.Get("email"),
			Message: r.PostForm.Get("message"),
		}

		data := renderer.Data(web.PageContact)
		data.Contact.Form = form
		status := http.StatusOK

		_, err := deps.Contacts.Submit(r.Context(), form)
		var verr *contact.ValidationError
		switch {
		case errors.As(err, &verr):
			data.Contact.Errors = verr.Fields
			status = http.StatusUnprocessableEntity
		case err != nil:
			deps.Log.Error("contact submission failed", "err", err)
			data.Contact.Error = "Sorry, we couldn't send your message. Please try again."
			status = http.StatusInternalServerError
		default:
			data.Contact = web.ContactView{Sent: true}
		}
		render(deps, w, renderer, status, data)
	}
}
