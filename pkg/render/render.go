// Copyright 2026 The picstash Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package render renders HTML templates from a template directory and
// provides the auth-redirect URL helpers available inside templates.
package render

import (
	"fmt"
	"html/template"
	"net/url"
	"path/filepath"
	"strings"
)

// LoginURL returns the login redirect URL for a target path. After a
// successful login the user lands back on the target.
func LoginURL(target string) string {
	return "/auth/login?continue=" + url.QueryEscape(target)
}

// LogoutURL returns the logout redirect URL for a target path.
func LogoutURL(target string) string {
	return "/auth/logout?continue=" + url.QueryEscape(target)
}

// Renderer renders named templates loaded from a directory.
type Renderer struct {
	tmpl *template.Template
}

// funcs are the custom directives available inside templates.
var funcs = template.FuncMap{
	"login_url":  LoginURL,
	"logout_url": LogoutURL,
}

// NewRenderer parses every *.html file under dir.
func NewRenderer(dir string) (*Renderer, error) {
	tmpl, err := template.New("").Funcs(funcs).ParseGlob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates in %s: %w", dir, err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render executes the named template with the given context and
// returns the result as a string.
func (r *Renderer) Render(templateName string, context any) (string, error) {
	var sb strings.Builder
	if err := r.tmpl.ExecuteTemplate(&sb, templateName, context); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", templateName, err)
	}
	return sb.String(), nil
}
