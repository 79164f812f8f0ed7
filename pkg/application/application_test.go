package application

import (
	"errors"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubController struct{ key string }

func (c stubController) Register(*mux.Router) {}
func (c stubController) Key() string          { return c.key }

type greeter struct{ name string }

type stubModule struct {
	name string
	err  error
}

func (m stubModule) Name() string { return m.name }
func (m stubModule) Register(app Application) error {
	if m.err != nil {
		return m.err
	}
	app.RegisterServices(&greeter{name: m.name})
	return nil
}

func TestApplication_ControllersKeepOrderAndDedupe(t *testing.T) {
	app := New(&ApplicationOptions{})
	app.RegisterControllers(stubController{key: "/b"}, stubController{key: "/a"}, stubController{key: "/b"})

	got := app.Controllers()
	require.Len(t, got, 2)
	assert.Equal(t, "/b", got[0].Key())
	assert.Equal(t, "/a", got[1].Key())
}

func TestApplication_Services(t *testing.T) {
	app := New(&ApplicationOptions{})
	require.NoError(t, LoadModules(app, stubModule{name: "hrm"}))

	svc, ok := app.Service(greeter{}).(*greeter)
	require.True(t, ok)
	assert.Equal(t, "hrm", svc.name)

	assert.Panics(t, func() { app.Service(stubController{}) })
}

func TestLoadModules_StopsOnError(t *testing.T) {
	app := New(&ApplicationOptions{})
	boom := errors.New("boom")
	err := LoadModules(app, stubModule{name: "dtr", err: boom}, stubModule{name: "hrm"})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "module dtr")
	assert.Empty(t, app.Services())
}
