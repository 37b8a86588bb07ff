package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/learnhub/core/certificate"
)

type certificateApi struct {
	svc certificate.Service
}

func registerCertificateAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc certificate.Service) {
	api := certificateApi{svc: svc}

	cg := g.Group("/certificates")

	// un-authed endpoint: anyone holding a certificate number may verify it
	cg.GET("/verify/:number", api.verify)

	// authed endpoints
	ag := cg.Group("", jwt)
	ag.GET("", api.query)
	ag.GET("/templates", api.queryTemplates)
	ag.GET("/:id", api.retrieve)
	ag.GET("/:id/download", api.download)
}

// Handlers

func (api *certificateApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	certs, err := api.svc.ListByUser(claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying certificates")
	}
	if certs == nil {
		certs = []certificate.Certificate{}
	}
	return ctx.JSON(http.StatusOK, certs)
}

func (api *certificateApi) queryTemplates(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, certificate.Templates)
}

func (api *certificateApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	cert, err := api.svc.Get(claims.Subject, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == certificate.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting certificate")
	}
	return ctx.JSON(http.StatusOK, cert)
}

// download renders the certificate as a PNG using the requested template.
func (api *certificateApi) download(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	cert, err := api.svc.Get(claims.Subject, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == certificate.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting certificate")
	}

	tpl := certificate.TemplateByID(ctx.QueryParam("template"))
	png, err := certificate.Render(cert, tpl)
	if err != nil {
		return errors.Wrap(err, "rendering certificate")
	}

	ctx.Response().Header().Set(
		echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", "certificate-"+cert.Number+".png"),
	)
	return ctx.Blob(http.StatusOK, "image/png", png)
}

func (api *certificateApi) verify(ctx echo.Context) error {
	cert, err := api.svc.Verify(ctx.Param("number"))
	if err != nil {
		if errors.Cause(err) == certificate.ErrNotFound {
			return ctx.JSON(http.StatusNotFound, VerifyResponse{Valid: false})
		}
		return errors.Wrap(err, "verifying certificate")
	}
	return ctx.JSON(http.StatusOK, VerifyResponse{Valid: true, Certificate: &cert})
}

type VerifyResponse struct {
	Valid       bool                     `json:"valid"`
	Certificate *certificate.Certificate `json:"certificate,omitempty"`
}
