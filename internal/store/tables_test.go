package store

import (
	"testing"

	"tabletap/internal/model"
)

func TestTablePatchStatus(t *testing.T) {
	c := NewTableCache()
	c.Set("rest-1", []model.Table{
		{ID: "table-1", RestaurantID: "rest-1", TableNumber: "1", Status: model.TableAvailable, Capacity: 4},
		{ID: "table-2", RestaurantID: "rest-1", TableNumber: "2", Status: model.TableAvailable, Capacity: 2},
	})

	if !c.PatchStatus("table-2", model.TableOccupied) {
		t.Fatal("expected patch to hit")
	}

	tables := c.Tables("rest-1")
	if tables[1].Status != model.TableOccupied {
		t.Errorf("status = %q, want %q", tables[1].Status, model.TableOccupied)
	}
	if tables[1].Capacity != 2 {
		t.Errorf("patch clobbered capacity: %d", tables[1].Capacity)
	}
	if tables[0].Status != model.TableAvailable {
		t.Errorf("patch leaked onto other table: %q", tables[0].Status)
	}
}

func TestTablePatchUnknownIsNoop(t *testing.T) {
	c := NewTableCache()
	c.Set("rest-1", []model.Table{{ID: "table-1", Status: model.TableAvailable}})

	if c.PatchStatus("table-missing", model.TableCleaning) {
		t.Error("patch for unknown table reported a hit")
	}
	if n := len(c.Tables("rest-1")); n != 1 {
		t.Errorf("unknown id changed list length: %d", n)
	}
}

func TestTableSetCopiesInput(t *testing.T) {
	c := NewTableCache()
	input := []model.Table{{ID: "table-1", Status: model.TableAvailable}}
	c.Set("rest-1", input)

	c.PatchStatus("table-1", model.TableOccupied)

	if input[0].Status != model.TableAvailable {
		t.Errorf("patch wrote into the caller's slice: %q", input[0].Status)
	}
	if got := c.Tables("rest-1")[0].Status; got != model.TableOccupied {
		t.Errorf("fresh read missing the patch: %q", got)
	}
}

func TestTableGet(t *testing.T) {
	c := NewTableCache()
	c.Set("rest-1", []model.Table{{ID: "table-1", TableNumber: "7"}})

	got, ok := c.Get("table-1")
	if !ok || got.TableNumber != "7" {
		t.Errorf("get = %+v ok=%v", got, ok)
	}
	if _, ok := c.Get("table-nope"); ok {
		t.Error("expected miss for unknown table")
	}
}
