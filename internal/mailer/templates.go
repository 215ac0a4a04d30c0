package mailer

import (
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/osteele/liquid"

	"github.com/givebridge/givebridge/internal/domain"
)

// Renderer renders the outreach email bodies from Liquid templates.
// Parsed templates are cached; rendering is safe for concurrent use.
type Renderer struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewRenderer creates a renderer with the domain filters registered.
func NewRenderer() *Renderer {
	r := &Renderer{engine: liquid.NewEngine()}

	// {{ donor_name | default: "Friend" }}
	r.engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		s := fmt.Sprintf("%v", value)
		if s == "" || s == "<nil>" {
			return defaultVal
		}
		return value
	})

	// {{ goal_amount | currency }}
	r.engine.RegisterFilter("currency", func(v float64) string {
		return fmt.Sprintf("$%.2f", v)
	})

	// {{ message | escape }}
	r.engine.RegisterFilter("escape", func(s string) string {
		return html.EscapeString(s)
	})

	return r
}

// TemplateVars are the values available inside every outreach template.
type TemplateVars struct {
	RecipientName   string
	OrganizerName   string
	CampaignTitle   string
	GoalAmount      float64
	RaisedAmount    float64
	PersonalMessage string
	ClickURL        string
	PixelURL        string
	PrefillAmount   float64
}

func (v TemplateVars) bindings() map[string]interface{} {
	return map[string]interface{}{
		"recipient_name":   v.RecipientName,
		"organizer_name":   v.OrganizerName,
		"campaign_title":   v.CampaignTitle,
		"goal_amount":      v.GoalAmount,
		"raised_amount":    v.RaisedAmount,
		"personal_message": v.PersonalMessage,
		"click_url":        v.ClickURL,
		"pixel_url":        v.PixelURL,
		"prefill_amount":   v.PrefillAmount,
	}
}

// Render produces the subject and HTML body for one token type.
func (r *Renderer) Render(t domain.LinkTokenType, vars TemplateVars) (subject, htmlBody string, err error) {
	src, ok := builtinTemplates[t]
	if !ok {
		return "", "", fmt.Errorf("no template for token type %q", t)
	}

	b := vars.bindings()
	subject, err = r.render("subject:"+string(t), src.subject, b)
	if err != nil {
		return "", "", err
	}
	htmlBody, err = r.render("body:"+string(t), src.body, b)
	if err != nil {
		return "", "", err
	}
	return subject, htmlBody, nil
}

func (r *Renderer) render(key, src string, bindings map[string]interface{}) (string, error) {
	var tpl *liquid.Template
	if cached, ok := r.cache.Load(key); ok {
		tpl = cached.(*liquid.Template)
	} else {
		parsed, err := r.engine.ParseString(src)
		if err != nil {
			return "", fmt.Errorf("parsing template %s: %w", key, err)
		}
		r.cache.Store(key, parsed)
		tpl = parsed
	}

	out, err := tpl.Render(bindings)
	if err != nil {
		return "", fmt.Errorf("rendering template %s: %w", key, err)
	}
	return strings.TrimSpace(string(out)), nil
}

type templatePair struct {
	subject string
	body    string
}

const trackingFooter = `<img src="{{ pixel_url }}" width="1" height="1" alt="" style="display:none">`

var builtinTemplates = map[domain.LinkTokenType]templatePair{
	domain.TokenInvite: {
		subject: `{{ organizer_name | default: "A friend" }} invited you to support {{ campaign_title }}`,
		body: `<p>Hi {{ recipient_name | default: "Friend" }},</p>
{% if personal_message != "" %}<p>{{ personal_message | escape }}</p>{% endif %}
<p>{{ organizer_name }} is raising {{ goal_amount | currency }} for <strong>{{ campaign_title }}</strong>.</p>
{% if prefill_amount > 0 %}<p><a href="{{ click_url }}">Give {{ prefill_amount | currency }} now</a></p>
{% else %}<p><a href="{{ click_url }}">Visit the campaign</a></p>{% endif %}
` + trackingFooter,
	},
	domain.TokenUpdate: {
		subject: `Update from {{ campaign_title }}`,
		body: `<p>Hi {{ recipient_name | default: "Friend" }},</p>
{% if personal_message != "" %}<p>{{ personal_message | escape }}</p>{% endif %}
<p><strong>{{ campaign_title }}</strong> has raised {{ raised_amount | currency }} of its {{ goal_amount | currency }} goal.</p>
<p><a href="{{ click_url }}">See the latest progress</a></p>
` + trackingFooter,
	},
	domain.TokenThanks: {
		subject: `Thank you for supporting {{ campaign_title }}`,
		body: `<p>Hi {{ recipient_name | default: "Friend" }},</p>
{% if personal_message != "" %}<p>{{ personal_message | escape }}</p>{% endif %}
<p>Your gift helped bring <strong>{{ campaign_title }}</strong> to {{ raised_amount | currency }} raised. Thank you.</p>
<p><a href="{{ click_url }}">Share the campaign</a></p>
` + trackingFooter,
	},
}
