// Package landing renders the pages shown to a recipient after a
// tracked click or credential submission. Campaign-specific pages are
// Liquid templates; a built-in awareness page is used when a campaign
// has none configured or its template fails to render.
package landing

import (
	"fmt"
	"html"
	"net/url"
	"strings"
	"sync"

	"github.com/osteele/liquid"

	"github.com/ignite/phishsim/internal/domain"
	"github.com/ignite/phishsim/internal/pkg/logger"
)

// TemplateService renders Liquid landing pages with per-campaign caching.
type TemplateService struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewTemplateService creates the service and registers the custom filters.
func NewTemplateService() *TemplateService {
	ts := &TemplateService{engine: liquid.NewEngine()}
	ts.registerFilters()
	return ts
}

func (ts *TemplateService) registerFilters() {
	// Fallback value: {{ first_name | default: "there" }}
	ts.engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		strVal := fmt.Sprintf("%v", value)
		if strVal == "" || strVal == "<nil>" {
			return defaultVal
		}
		return value
	})

	// HTML escape: {{ user_input | escape }}
	ts.engine.RegisterFilter("escape", func(s string) string {
		return html.EscapeString(s)
	})

	// URL encode: {{ email | urlencode }}
	ts.engine.RegisterFilter("urlencode", func(s string) string {
		return url.QueryEscape(s)
	})

	// Mask email for on-page display: {{ email | mask_email }}
	ts.engine.RegisterFilter("mask_email", func(email string) string {
		parts := strings.Split(email, "@")
		if len(parts) != 2 {
			return email
		}
		local := parts[0]
		if len(local) <= 2 {
			return local + "***@" + parts[1]
		}
		return local[:2] + "***@" + parts[1]
	})
}

// ClickPage renders the campaign's configured landing page for a
// recipient. Rendering is lax: a broken template falls back to the
// built-in awareness page rather than erroring at the recipient.
func (ts *TemplateService) ClickPage(c *domain.Campaign, org *domain.Organization, email string) string {
	if c == nil || c.ClickPageHTML == "" {
		return DefaultClickPage
	}

	ctx := map[string]interface{}{
		"email":        email,
		"campaign":     c.Name,
		"organization": "",
	}
	if org != nil {
		ctx["organization"] = org.Name
	}

	out, err := ts.render("campaign:"+c.ID, c.ClickPageHTML, ctx)
	if err != nil {
		logger.Warn("landing page render failed", "campaign_id", c.ID, "error", err.Error())
		return DefaultClickPage
	}
	return out
}

// render compiles and caches the template, then renders it with ctx.
func (ts *TemplateService) render(cacheKey, templateStr string, ctx map[string]interface{}) (string, error) {
	if cached, ok := ts.cache.Load(cacheKey); ok {
		return cached.(*liquid.Template).RenderString(ctx)
	}

	tpl, err := ts.engine.ParseString(templateStr)
	if err != nil {
		return "", err
	}
	ts.cache.Store(cacheKey, tpl)
	return tpl.RenderString(ctx)
}

// ClearCacheKey drops a cached campaign template, for when its page is edited.
func (ts *TemplateService) ClearCacheKey(key string) {
	ts.cache.Delete(key)
}

// DefaultClickPage is the awareness page served when a campaign has no
// custom landing page, or when the tracking code is unknown. Serving
// it unconditionally keeps the click endpoint from revealing which
// codes are valid.
const DefaultClickPage = `<!DOCTYPE html>
<html>
<head><title>Security Notice</title></head>
<body style="font-family:Arial,sans-serif;text-align:center;padding:50px;">
	<h1>This was a simulated phishing test</h1>
	<p>The link you just clicked was part of a security awareness exercise run by your organization.</p>
	<p>No harm was done, but in a real attack this click could have compromised your account.</p>
</body>
</html>`

// SubmitPage is served after a credential submission on the landing
// page. The submitted values are never stored or echoed back.
const SubmitPage = `<!DOCTYPE html>
<html>
<head><title>Security Notice</title></head>
<body style="font-family:Arial,sans-serif;text-align:center;padding:50px;">
	<h1>Stop: this was a simulated phishing test</h1>
	<p>You entered credentials on a page that was part of a security awareness exercise.</p>
	<p>Your input was not recorded. In a real attack, your account would now be compromised. Please review your organization's security training.</p>
</body>
</html>`
