package server

import (
	"fmt"
	"html"
	"net/http"
	"strings"

	errbuilder "github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/labstack/echo/v4"

	"wheelhouse/internal/registry"
	"wheelhouse/internal/wheel"
)

func (s *Server) handleHome(c echo.Context) error {
	content := "<p>Use <a href='/simple/'>/simple/</a> for the package listing</p>\n" +
		"<p>Upload packages using POST to /upload</p>"
	return c.HTML(http.StatusOK, renderPage("Wheelhouse Package Registry", content))
}

func (s *Server) handleListPackages(c echo.Context) error {
	names := s.registry.ListPackages()

	var b strings.Builder
	for _, name := range names {
		escaped := html.EscapeString(name)
		fmt.Fprintf(&b, "<a href='/simple/%s/'>%s</a><br>\n", escaped, escaped)
	}
	return c.HTML(http.StatusOK, renderPage("Package Index", b.String()))
}

func (s *Server) handlePackageDetail(c echo.Context) error {
	name := c.Param("package")

	pkg, err := s.registry.GetPackage(name)
	if err != nil {
		return err
	}

	versions := make([]string, 0, len(pkg.Releases))
	for _, release := range pkg.Releases {
		versions = append(versions, release.Version)
	}

	title := fmt.Sprintf("%s Versions", pkg.Name)
	if latest := wheel.LatestVersion(versions); latest != "" {
		title = fmt.Sprintf("%s %s", pkg.Name, latest)
	}

	var b strings.Builder
	for _, release := range pkg.Releases {
		fmt.Fprintf(&b, "<a href='/packages/%s/%s'>%s</a> (uploaded: %s)<br>\n",
			html.EscapeString(pkg.Name),
			html.EscapeString(release.Filename),
			html.EscapeString(release.Filename),
			release.UploadTime.UTC().Format("2006-01-02 15:04:05 UTC"))
	}
	return c.HTML(http.StatusOK, renderPage(title, b.String()))
}

func (s *Server) handleDownload(c echo.Context) error {
	name := c.Param("package")
	filename := c.Param("filename")

	blob, err := s.blobs.GetBlob(name, filename)
	if err != nil {
		return err
	}
	defer blob.Close()

	return c.Stream(http.StatusOK, "application/octet-stream", blob)
}

func (s *Server) handleUpload(c echo.Context) error {
	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, s.cfg.Server.MaxUploadSize)

	form, err := c.MultipartForm()
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("malformed upload stream: %v", err))
	}

	var parts []registry.Part
	for _, files := range form.File {
		for _, fileHeader := range files {
			file, err := fileHeader.Open()
			if err != nil {
				return errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("malformed upload part %q: %v", fileHeader.Filename, err))
			}
			defer file.Close()
			parts = append(parts, registry.Part{Filename: fileHeader.Filename, Data: file})
		}
	}

	accepted, err := s.pipeline.Process(c.Request().Context(), parts)
	if err != nil {
		return err
	}

	return c.String(http.StatusOK, fmt.Sprintf("accepted %d package(s)\n", accepted))
}

func renderPage(title, content string) string {
	escaped := html.EscapeString(title)
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<style>
    body {
        background-color: #1e1e1e;
        color: #d4d4d4;
        font-family: Arial, sans-serif;
        margin: 0;
        padding: 0;
    }
</style>
<head><title>%s</title></head>
<body>
    <h1>%s</h1>
    %s
</body>
</html>`, escaped, escaped, content)
}
