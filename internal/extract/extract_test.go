package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraphd/codegraphd/internal/graphcore"
)

func TestPythonExtractor_ImportForms(t *testing.T) {
	src := []byte(`import os
import os.path
import a, b
from pkg.sub import thing
from . import sibling
import numpy as np
`)
	rec := PythonExtractor{}.Extract("x.py", src)
	specs := map[string]graphcore.EdgeType{}
	for _, e := range rec.Edges {
		specs[e.Spec] = e.Type
	}
	for _, want := range []string{"os", "os.path", "a", "b", "pkg.sub", "numpy"} {
		_, ok := specs[want]
		assert.True(t, ok, "missing import %q in %v", want, specs)
	}
}

func TestCFamilyExtractor_LocalAndSystem(t *testing.T) {
	src := []byte(`#include "foo.h"
#include <stdio.h>
`)
	rec := CFamilyExtractor{}.Extract("dir/main.c", src)
	require.Len(t, rec.Edges, 2)
	assert.Equal(t, "dir/foo.h", rec.Edges[0].Spec)
	assert.Equal(t, graphcore.Include, rec.Edges[0].Type)
	assert.Equal(t, "sys:stdio.h", rec.Edges[1].Spec)
}

func TestJSTSExtractor_RelativeImportJoined(t *testing.T) {
	src := []byte(`import { b } from './b'
import React from 'react'
const x = require('./util')
`)
	rec := JSTSExtractor{}.Extract("src/a.ts", src)
	var sawB, sawReact, sawUtil bool
	for _, e := range rec.Edges {
		switch e.Spec {
		case "src/b":
			sawB = true
			assert.Equal(t, graphcore.Import, e.Type)
		case "react":
			sawReact = true
		case "src/util":
			sawUtil = true
			assert.Equal(t, graphcore.Require, e.Type)
		}
	}
	assert.True(t, sawB, "expected relative import joined to src/b, got %+v", rec.Edges)
	assert.True(t, sawReact)
	assert.True(t, sawUtil)
}

func TestJSTSExtractor_AssetImportsDropped(t *testing.T) {
	src := []byte(`import './styles.css'
import img from '../logo.png'
`)
	rec := JSTSExtractor{}.Extract("src/a.tsx", src)
	assert.Empty(t, rec.Edges)
}

func TestRegistry_DispatchesByExtension(t *testing.T) {
	r := NewRegistry()
	rec := r.Extract("x.py", []byte("import os"))
	assert.Equal(t, "python", rec.Language)

	_, ok := r.For("x.unknown")
	assert.False(t, ok)
	assert.False(t, r.Watched("x.unknown"))
}
