// Command cachetrip runs a small caching forward proxy: requests are
// forwarded to a configured origin through the caching transport, so
// repeated requests are served from the cache per the origin's
// Cache-Control headers. A PURGE request evicts a URL by hand.
package main

import (
	"flag"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	cachetrip "github.com/cachetrip/cachetrip"
)

var (
	configFlag         string
	verbosityTraceFlag bool
	logFilenameFlag    string
)

func init() {
	chi.RegisterMethod("PURGE")
	flag.StringVar(&configFlag, "config", "", "Config file to use")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")
	flag.StringVar(&logFilenameFlag, "log-file", "", "Log file to use (in addition to stdout)")
}

func main() {
	flag.Parse()

	logLevel := zerolog.DebugLevel
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}
	logOutputs := []io.Writer{zerolog.ConsoleWriter{Out: os.Stdout}}
	if logFilenameFlag != "" {
		logFileOutput, err := os.OpenFile(logFilenameFlag, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
		if err != nil {
			log.Fatal().Err(err).Msg("Cannot open log file")
		}
		logOutputs = append(logOutputs, logFileOutput)
	}
	log.Logger = log.Level(logLevel).Output(zerolog.MultiLevelWriter(logOutputs...))

	config, err := getConfig(configFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot read config")
	}
	origin, err := url.Parse(config.Origin)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		log.Fatal().Err(err).Str("origin", config.Origin).Msg("Invalid origin URL")
	}

	store, err := config.Cache.store()
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot create cache store")
	}

	transport := cachetrip.New(cachetrip.Config{
		Store:        store,
		StaleOnError: config.StaleOnError,
		Logger:       &log.Logger,
	})
	client := transport.Client()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.MethodFunc("PURGE", "/*", func(w http.ResponseWriter, req *http.Request) {
		transport.Invalidate(req.Context(), originURL(origin, req))
		w.WriteHeader(http.StatusNoContent)
	})
	r.HandleFunc("/*", func(w http.ResponseWriter, req *http.Request) {
		outbound, err := http.NewRequestWithContext(
			req.Context(), req.Method, originURL(origin, req).String(), req.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		copyHeader(outbound.Header, req.Header)
		outbound.Host = origin.Host

		res, err := client.Do(outbound)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		defer res.Body.Close()
		copyHeader(w.Header(), res.Header)
		w.WriteHeader(res.StatusCode)
		if _, err := io.Copy(w, res.Body); err != nil {
			log.Error().Err(err).Msg("Could not write response body to client")
		}
	})

	log.Info().Str("listen", config.Listen).Str("origin", origin.String()).Msg("Starting caching proxy")
	if err := http.ListenAndServe(config.Listen, r); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

func originURL(origin *url.URL, req *http.Request) *url.URL {
	u := *origin
	u.Path = req.URL.Path
	u.RawQuery = req.URL.RawQuery
	return &u
}

func copyHeader(dst, src http.Header) {
	for name, values := range src {
		for _, value := range values {
			dst.Add(name, value)
		}
	}
}
