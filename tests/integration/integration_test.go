// Package integration exercises the binding end to end against the
// in-memory repository harness.
package integration

import (
	"testing"

	"github.com/content-interop/cmis-go/cmis"
	"github.com/content-interop/cmis-go/cmis/browser"
	"github.com/content-interop/cmis-go/cmis/model"
	"github.com/content-interop/cmis-go/tests/integration/harness"

	// Register the type cache drivers
	_ "github.com/content-interop/cmis-go/cmis/typecache/loader"
)

const repoID = "test-repo"

func newBinding(t *testing.T, s *harness.Server, mutate func(*browser.Options)) *browser.Binding {
	t.Helper()
	opts := browser.Options{
		ServiceURL: s.ServiceURL,
		Succinct:   true,
		Version:    cmis.Version11,
	}
	if mutate != nil {
		mutate(&opts)
	}
	b, err := browser.New(opts)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func objectProps(typeID, name string) *model.Properties {
	props := &model.Properties{}
	props.Add(&model.Property{
		ID:     cmis.PropObjectTypeID,
		Kind:   cmis.PropertyID,
		Values: []model.Value{model.IDValue(typeID)},
	})
	props.Add(&model.Property{
		ID:     cmis.PropName,
		Kind:   cmis.PropertyString,
		Values: []model.Value{model.StringValue(name)},
	})
	return props
}
