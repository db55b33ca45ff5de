// Package reducer reconciles lists of id-bearing records against typed actions.
package reducer

import "github.com/HaiFongPan/r2drive/internal/model"

// ActionType identifies how an action's payload is reconciled
type ActionType string

const (
	ActionAdd     ActionType = "add"
	ActionRemove  ActionType = "remove"
	ActionUpdate  ActionType = "update"
	ActionPatch   ActionType = "patch"
	ActionReplace ActionType = "replace"
)

// Partial is a partial record of T that knows which record it targets
// and how to merge itself over it.
type Partial[T any] interface {
	PatchID() string
	Merge(T) T
}

// Action is a single mutation of a list. Only the payload field matching
// Type is read: Records for add/update/replace, IDs for remove, Patches for patch.
type Action[T model.Record] struct {
	Type    ActionType
	Records []T
	IDs     []string
	Patches []Partial[T]
}

// Add appends records to the end of the list
func Add[T model.Record](records ...T) Action[T] {
	return Action[T]{Type: ActionAdd, Records: records}
}

// Remove drops every record whose id is listed
func Remove[T model.Record](ids ...string) Action[T] {
	return Action[T]{Type: ActionRemove, IDs: ids}
}

// Update replaces matching records wholesale
func Update[T model.Record](records ...T) Action[T] {
	return Action[T]{Type: ActionUpdate, Records: records}
}

// Patch merges partial records over matching records
func Patch[T model.Record](patches ...Partial[T]) Action[T] {
	return Action[T]{Type: ActionPatch, Patches: patches}
}

// Replace discards the list and uses records instead
func Replace[T model.Record](records ...T) Action[T] {
	return Action[T]{Type: ActionReplace, Records: records}
}

// Reduce applies action to list and returns the resulting list.
// The input slice is never modified. Unknown action types return list as is.
func Reduce[T model.Record](list []T, action Action[T]) []T {
	switch action.Type {
	case ActionAdd:
		out := make([]T, 0, len(list)+len(action.Records))
		out = append(out, list...)
		return append(out, action.Records...)

	case ActionRemove:
		drop := make(map[string]struct{}, len(action.IDs))
		for _, id := range action.IDs {
			drop[id] = struct{}{}
		}
		out := make([]T, 0, len(list))
		for _, item := range list {
			if _, ok := drop[item.GetID()]; !ok {
				out = append(out, item)
			}
		}
		return out

	case ActionUpdate:
		// first match wins, same as a linear find over the payload
		incoming := make(map[string]T, len(action.Records))
		for i := len(action.Records) - 1; i >= 0; i-- {
			incoming[action.Records[i].GetID()] = action.Records[i]
		}
		out := make([]T, len(list))
		for i, item := range list {
			if next, ok := incoming[item.GetID()]; ok {
				out[i] = next
			} else {
				out[i] = item
			}
		}
		return out

	case ActionPatch:
		patches := make(map[string]Partial[T], len(action.Patches))
		for i := len(action.Patches) - 1; i >= 0; i-- {
			patches[action.Patches[i].PatchID()] = action.Patches[i]
		}
		out := make([]T, len(list))
		for i, item := range list {
			if p, ok := patches[item.GetID()]; ok {
				out[i] = p.Merge(item)
			} else {
				out[i] = item
			}
		}
		return out

	case ActionReplace:
		out := make([]T, len(action.Records))
		copy(out, action.Records)
		return out

	default:
		return list
	}
}
