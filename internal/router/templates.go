package router

import (
	"fmt"
	"html/template"
	"path/filepath"
	"strings"
	"time"

	"dailydog/internal/utils"

	"github.com/gin-contrib/multitemplate"
)

// LoadTemplates builds one template set per view. Each set is the layouts,
// then the includes, then the view, so the layout is what gets executed and
// the view fills its "content" block. Views are named by their path below
// views/, e.g. "article/detail.html".
func LoadTemplates(templatesDir string) (multitemplate.Renderer, error) {
	r := multitemplate.NewRenderer()

	layouts, err := filepath.Glob(filepath.Join(templatesDir, "layouts", "*.html"))
	if err != nil {
		return nil, err
	}
	if len(layouts) == 0 {
		return nil, fmt.Errorf("no layouts in %s", templatesDir)
	}
	includes, err := filepath.Glob(filepath.Join(templatesDir, "includes", "*.html"))
	if err != nil {
		return nil, err
	}

	viewsDir := filepath.Join(templatesDir, "views")
	var views []string
	for _, pattern := range []string{"*.html", "*/*.html"} {
		found, err := filepath.Glob(filepath.Join(viewsDir, pattern))
		if err != nil {
			return nil, err
		}
		views = append(views, found...)
	}

	funcs := TemplateFuncs()
	for _, view := range views {
		name, err := filepath.Rel(viewsDir, view)
		if err != nil {
			return nil, err
		}
		files := make([]string, 0, len(layouts)+len(includes)+1)
		files = append(files, layouts...)
		files = append(files, includes...)
		files = append(files, view)
		r.AddFromFilesFuncs(filepath.ToSlash(name), funcs, files...)
	}
	return r, nil
}

func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"dict": func(values ...interface{}) (map[string]interface{}, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"add": func(a, b int) int {
			return a + b
		},
		"timeAgo": func(t interface{}) string {
			return timeAgo(t, time.Now())
		},
		"formatDate": formatDate,
		"safeHTML": func(s string) template.HTML {
			return template.HTML(s)
		},
		"stripHTML": utils.StripTags,
		"join":      strings.Join,
		"year": func() int {
			return time.Now().Year()
		},
	}
}

func timeAgo(t interface{}, now time.Time) string {
	var at time.Time
	switch v := t.(type) {
	case time.Time:
		at = v
	case *time.Time:
		if v == nil {
			return ""
		}
		at = *v
	default:
		return ""
	}

	seconds := int(now.Sub(at).Seconds())
	switch {
	case seconds < 60:
		return "just now"
	case seconds < 3600:
		return plural(seconds/60, "minute")
	case seconds < 86400:
		return plural(seconds/3600, "hour")
	case seconds < 2592000:
		return plural(seconds/86400, "day")
	case seconds < 31536000:
		return plural(seconds/2592000, "month")
	}
	return plural(seconds/31536000, "year")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// formatDate renders "January 2, 2006"; nil pointers render empty.
func formatDate(t interface{}) string {
	switch v := t.(type) {
	case time.Time:
		return v.Format("January 2, 2006")
	case *time.Time:
		if v != nil {
			return v.Format("January 2, 2006")
		}
	}
	return ""
}
