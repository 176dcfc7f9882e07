// Template library - lazy-loading YAML template store
//
// Templates live as one YAML document per file, named <id>.yaml, under a
// library directory. Lookup is lazy: a template is read, strictly
// decoded and validated on first Get and cached for the rest of the
// run. The three failure modes stay distinct: a missing file, an
// unreadable or unparsable file, and a file that parses but fails
// validation.
//
// Copyright (C) 2026  Show Compiler Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package library

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"showcompiler-go/pkg/errors"
	"showcompiler-go/pkg/log"
	"showcompiler-go/pkg/template"
)

// TemplateLibrary serves templates by id from a directory.
type TemplateLibrary struct {
	dir string

	mu    sync.RWMutex
	cache map[string]*template.Template

	log *log.Logger
}

// Open binds a library to a directory. The directory must exist; its
// contents are read lazily.
func Open(dir string) (*TemplateLibrary, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTemplateLoad, "cannot open template library directory")
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrTemplateLoad, dir+" is not a directory")
	}
	return &TemplateLibrary{
		dir:   dir,
		cache: make(map[string]*template.Template),
		log:   log.New("library"),
	}, nil
}

// Get returns the template with the given id, loading it on first use.
func (l *TemplateLibrary) Get(id string) (*template.Template, error) {
	l.mu.RLock()
	if t, ok := l.cache[id]; ok {
		l.mu.RUnlock()
		return t, nil
	}
	l.mu.RUnlock()

	path, ok := l.pathFor(id)
	if !ok {
		return nil, errors.TemplateNotFoundError(id)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.TemplateLoadError(id, err)
	}

	var t template.Template
	if err := strictDecode(data, &t); err != nil {
		return nil, errors.TemplateLoadError(id, err)
	}
	if t.ID == "" {
		t.ID = id
	}
	if t.ID != id {
		return nil, errors.TemplateInvalidError(id,
			"file '"+filepath.Base(path)+"' declares id '"+t.ID+"'")
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cache[id] = &t
	l.mu.Unlock()

	l.log.Debug("loaded template '%s' from %s", id, path)
	return &t, nil
}

// IDs lists every template id available on disk, sorted.
func (l *TemplateLibrary) IDs() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTemplateLoad, "cannot list template library")
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ext))
	}
	sort.Strings(ids)
	return ids, nil
}

// pathFor locates the file backing a template id.
func (l *TemplateLibrary) pathFor(id string) (string, bool) {
	for _, ext := range []string{".yaml", ".yml"} {
		p := filepath.Join(l.dir, id+ext)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// strictDecode rejects unknown YAML fields so typos in template files
// fail loudly instead of silently dropping configuration.
func strictDecode(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}
