package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/halcyard/akr/internal/kernel"
)

// EvaluateAssertions checks every assertion against the run result and
// returns one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result, &a)
		case AssertTraceOrder:
			err = assertTraceOrder(result, &a)
		case AssertTraceCount:
			err = assertTraceCount(result, &a)
		case AssertFinalState:
			err = assertFinalState(result, &a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("assertion[%d] %s: %v", i, a.Type, err))
		}
	}
	return failures
}

func assertTraceContains(result *Result, a *Assertion) error {
	for _, ev := range result.Trace {
		if ev.Kind != a.Kind {
			continue
		}
		if matchSubset(a.Event, ev.Event) {
			return nil
		}
	}
	return fmt.Errorf("no %s event matching %v in trace of %d events", a.Kind, a.Event, len(result.Trace))
}

func assertTraceOrder(result *Result, a *Assertion) error {
	next := 0
	for _, ev := range result.Trace {
		if next < len(a.Kinds) && ev.Kind == a.Kinds[next] {
			next++
		}
	}
	if next != len(a.Kinds) {
		return fmt.Errorf("order %s broken at position %d", strings.Join(a.Kinds, " -> "), next)
	}
	return nil
}

func assertTraceCount(result *Result, a *Assertion) error {
	count := 0
	for _, ev := range result.Trace {
		if ev.Kind == a.Kind {
			count++
		}
	}
	if count != a.Count {
		return fmt.Errorf("expected %d %s events, found %d", a.Count, a.Kind, count)
	}
	return nil
}

func assertFinalState(result *Result, a *Assertion) error {
	st := result.Final
	keys := make([]string, 0, len(a.State))
	for k := range a.State {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		want := a.State[key]
		switch key {
		case "epoch":
			if !matchValue(want, st.Epoch) {
				return fmt.Errorf("epoch: expected %v, got %d", want, st.Epoch)
			}
		case "deadlocked":
			if !matchValue(want, st.Deadlocked) {
				return fmt.Errorf("deadlocked: expected %v, got %t", want, st.Deadlocked)
			}
		case "deadlock_cause":
			if !matchValue(want, string(st.Cause)) {
				return fmt.Errorf("deadlock_cause: expected %v, got %s", want, st.Cause)
			}
		case "event_index":
			if !matchValue(want, st.EventIndex) {
				return fmt.Errorf("event_index: expected %v, got %d", want, st.EventIndex)
			}
		case "authorities":
			if err := assertAuthorities(st, want); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown final_state field %q", key)
		}
	}
	return nil
}

func assertAuthorities(st *kernel.State, want any) error {
	entries, ok := want.([]any)
	if !ok {
		return fmt.Errorf("authorities: expected a list, got %T", want)
	}
	for i, entry := range entries {
		fields, ok := entry.(map[string]any)
		if !ok {
			return fmt.Errorf("authorities[%d]: expected a map, got %T", i, entry)
		}
		id, _ := fields["authority_id"].(string)
		if id == "" {
			return fmt.Errorf("authorities[%d]: authority_id is required", i)
		}
		rec, found := st.Authority(id)
		if !found {
			return fmt.Errorf("authorities[%d]: %s not in state", i, id)
		}
		if status, ok := fields["status"].(string); ok && status != string(rec.Status) {
			return fmt.Errorf("authorities[%d]: %s status expected %s, got %s", i, id, status, rec.Status)
		}
	}
	return nil
}

// matchSubset reports whether every field in want matches the
// corresponding field in got. Fields absent from want are ignored.
func matchSubset(want, got map[string]any) bool {
	for key, wv := range want {
		gv, present := got[key]
		if !present || !matchValue(wv, gv) {
			return false
		}
	}
	return true
}

// matchValue compares a YAML-decoded expectation against a kernel value.
// Numbers normalize to int64 on both sides so YAML ints compare equal to
// JSON-decoded floats.
func matchValue(want, got any) bool {
	if wi, ok := asInt(want); ok {
		gi, ok := asInt(got)
		return ok && wi == gi
	}
	switch wv := want.(type) {
	case string:
		gs, ok := got.(string)
		return ok && wv == gs
	case bool:
		gb, ok := got.(bool)
		return ok && wv == gb
	case []any:
		gl, ok := got.([]any)
		if !ok || len(wv) != len(gl) {
			return false
		}
		for i := range wv {
			if !matchValue(wv[i], gl[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		gm, ok := got.(map[string]any)
		if !ok {
			return false
		}
		return matchSubset(wv, gm)
	case nil:
		return got == nil
	default:
		return false
	}
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}
