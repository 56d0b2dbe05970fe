package engine

import "sort"

// syncAddOns mutates r's attached add-on set in place until it matches cfg:
// detach what cfg no longer wants (or wants at a different weight), then
// attach what is missing. Never reconstructs. Returns whether anything
// changed.
//
// Bookkeeping tracks only what actually succeeded, so a failed attach leaves
// the resident valid and a later Prepare retries just the delta.
func (c *Cache) syncAddOns(r *Resident, cfg PipelineConfig) (bool, error) {
	want := cfg.addOnMap()

	var detach []AddOnID
	for id, w := range r.addons {
		if ww, ok := want[id]; !ok || ww != w {
			detach = append(detach, id)
		}
	}
	sort.Slice(detach, func(i, j int) bool { return detach[i] < detach[j] })

	var attach []AddOnSpec
	for _, a := range cfg.AddOns {
		if _, ok := r.addons[a.ID]; ok {
			// still attached at the right weight unless queued for detach
			queued := false
			for _, id := range detach {
				if id == a.ID {
					queued = true
					break
				}
			}
			if !queued {
				continue
			}
		}
		attach = append(attach, a)
	}

	if len(detach) == 0 && len(attach) == 0 {
		return false, nil
	}

	if len(detach) > 0 {
		if err := r.handle.DeleteAddOns(detach); err != nil {
			return false, ErrResourceUnavailable("detach add-ons", err)
		}
		for _, id := range detach {
			delete(r.addons, id)
		}
		c.pub.Publish(Event{Name: EvAddOnsDetach, Fields: map[string]any{"ids": addOnIDStrings(detach)}})
	}

	if len(attach) > 0 {
		resolved := make([]ResolvedAddOn, 0, len(attach))
		for _, a := range attach {
			p, err := c.store.AddOnPath(string(a.ID))
			if err != nil {
				return len(detach) > 0, mapWeightsErr(err)
			}
			resolved = append(resolved, ResolvedAddOn{ID: a.ID, Path: p, Weight: a.Weight})
		}
		if err := r.handle.LoadAddOns(resolved); err != nil {
			return len(detach) > 0, ErrResourceUnavailable("attach add-ons", err)
		}
		ids := make([]AddOnID, 0, len(attach))
		for _, a := range attach {
			r.addons[a.ID] = a.Weight
			ids = append(ids, a.ID)
		}
		c.pub.Publish(Event{Name: EvAddOnsAttach, Fields: map[string]any{"ids": addOnIDStrings(ids)}})
	}

	addonSwapsTotal.Inc()
	return true, nil
}

func addOnIDStrings(ids []AddOnID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
