package proxy

import (
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strings"
)

// serveNotFound renders an HTML page listing the currently active routes
// when a request's Host doesn't match any of them. Fields are passed
// through html/template, which escapes them automatically.
func (s *Server) serveNotFound(w http.ResponseWriter, host string) {
	routes := s.routesSnapshot()

	data := notFoundData{
		Host:     host,
		NameHint: strings.TrimSuffix(host, ".localhost"),
		Routes:   make([]notFoundRoute, 0, len(routes)),
	}
	for _, r := range routes {
		data.Routes = append(data.Routes, notFoundRoute{
			Hostname: r.Hostname,
			URL:      formatURL(r.Hostname, s.port),
			Port:     r.Port,
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("x-portless", "1")
	w.WriteHeader(http.StatusNotFound)
	if err := notFoundTmpl.Execute(w, data); err != nil {
		log.Printf("warning: failed to render not-found page: %v", err)
	}
}

type notFoundData struct {
	Host     string
	NameHint string
	Routes   []notFoundRoute
}

type notFoundRoute struct {
	Hostname string
	URL      string
	Port     int
}

// formatURL renders a browsable URL for a route, omitting the port
// suffix when the proxy is listening on the standard HTTP port.
func formatURL(hostname string, proxyPort int) string {
	if proxyPort == 80 {
		return fmt.Sprintf("http://%s", hostname)
	}
	return fmt.Sprintf("http://%s:%d", hostname, proxyPort)
}

var notFoundTmpl = template.Must(template.New("notfound").Parse(`<html>
  <head><title>portless - Not Found</title></head>
  <body style="font-family: system-ui; padding: 40px; max-width: 600px; margin: 0 auto;">
    <h1>Not Found</h1>
    <p>No app registered for <strong>{{.Host}}</strong></p>
    <h2>Active apps:</h2>
    {{if .Routes}}
    <ul>
      {{range .Routes}}<li><a href="{{.URL}}">{{.Hostname}}</a> - localhost:{{.Port}}</li>
      {{end}}
    </ul>
    {{else}}
    <p><em>No apps running.</em></p>
    {{end}}
    <p>Start an app with: <code>portless {{.NameHint}} your-command</code></p>
  </body>
</html>`))
