package controllers

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"postpanel/app/models"
	"postpanel/app/panel"
	"postpanel/app/storage"

	"github.com/gorilla/sessions"
)

// SessionName is the cookie holding flash notifications.
const SessionName = "postpanel_session"

// View renders the admin pages and carries flash notifications between requests.
type View struct {
	templates map[string]*template.Template
	sessions  sessions.Store
}

type headingContext struct {
	State  panel.TableState
	Column panel.Column
}

type sectionContext struct {
	Page    interface{}
	Section panel.Section
}

// NewView parses the layout and page templates from fsys.
func NewView(fsys fs.FS, store sessions.Store, disk *storage.Disk, resource *panel.Resource) (*View, error) {
	funcs := template.FuncMap{
		"lower": strings.ToLower,
		"add":   func(a, b int) int { return a + b },
		"storageURL": func(rel string) string {
			return disk.URL(rel)
		},
		"cellValue": func(c panel.Column, p *models.Post) interface{} {
			return c.Value(p)
		},
		"ternaryIs": func(v *bool, want bool) bool {
			return v != nil && *v == want
		},
		"hasID": func(ids []int, id int) bool {
			for _, v := range ids {
				if v == id {
					return true
				}
			}
			return false
		},
		"inputValue": inputValue,
		"fieldError": fieldError,
		"headingOf": func(s panel.TableState, c panel.Column) headingContext {
			return headingContext{State: s, Column: c}
		},
		"sectionOf": func(page interface{}, s panel.Section) sectionContext {
			return sectionContext{Page: page, Section: s}
		},
		"pageURL": func(s panel.TableState, page int) string {
			return listURL(resource, s, map[string]string{"page": strconv.Itoa(page)})
		},
		"sortURL": func(s panel.TableState, column string) string {
			direction := "asc"
			if s.Query.Sort == column && s.Query.Direction == "asc" {
				direction = "desc"
			}
			return listURL(resource, s, map[string]string{"sort": column, "direction": direction, "page": ""})
		},
		"toggleURL": func(s panel.TableState, column string) string {
			hidden := make(map[string]bool, len(s.Hidden)+1)
			for k, v := range s.Hidden {
				hidden[k] = v
			}
			hidden[column] = !hidden[column]
			s.Hidden = hidden
			return listURL(resource, s, nil)
		},
	}

	pages := map[string][]string{
		"index":   {"layout.html", "posts/index.html"},
		"form":    {"layout.html", "posts/form.html"},
		"authors": {"layout.html", "posts/authors.html"},
	}
	templates := make(map[string]*template.Template, len(pages))
	for name, files := range pages {
		t, err := template.New(name).Funcs(funcs).ParseFS(fsys, files...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s templates: %w", name, err)
		}
		templates[name] = t
	}
	return &View{templates: templates, sessions: store}, nil
}

// fieldError is the message shown under f, whether the failure was recorded under the
// field name, its submitted key or one of its list elements.
func fieldError(errs models.ValidationErrors, f panel.Field) string {
	if msg := errs.For(f.Name); msg != "" {
		return msg
	}
	return errs.For(f.InputName())
}

func listURL(resource *panel.Resource, s panel.TableState, extra map[string]string) string {
	return resource.URL(panel.PageIndex, 0) + "?" + s.Values(extra).Encode()
}

// Render executes the named page inside the layout. Pending flashes are consumed.
func (v *View) Render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]interface{}) error {
	t, ok := v.templates[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = models.ValidationErrors{}
	}
	data["Flashes"] = v.flashes(w, r)

	var buf strings.Builder
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write([]byte(buf.String()))
	return err
}

// Flash queues a notification for the next rendered page.
func (v *View) Flash(w http.ResponseWriter, r *http.Request, message string) error {
	session, err := v.sessions.Get(r, SessionName)
	if err != nil && session == nil {
		return err
	}
	session.AddFlash(message)
	return session.Save(r, w)
}

func (v *View) flashes(w http.ResponseWriter, r *http.Request) []string {
	session, err := v.sessions.Get(r, SessionName)
	if err != nil && session == nil {
		return nil
	}
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	messages := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			messages = append(messages, s)
		}
	}
	session.Save(r, w)
	return messages
}

// inputValue is the text shown in a form input for the named field.
func inputValue(in *models.PostInput, name string) string {
	if in == nil {
		return ""
	}
	switch name {
	case "title":
		return in.Title
	case "slug":
		return in.Slug
	case "color":
		return in.Color
	case "content":
		return in.Content
	case "thumbnail":
		return in.Thumbnail
	case "tags":
		return strings.Join(in.Tags, ", ")
	case "category_id":
		if in.CategoryID > 0 {
			return strconv.Itoa(in.CategoryID)
		}
	}
	return ""
}

// safeRedirect keeps redirects inside the resource.
func safeRedirect(target, fallback, base string) string {
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, base) {
		return fallback
	}
	return u.String()
}
