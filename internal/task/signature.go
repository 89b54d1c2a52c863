package task

import (
	"fmt"
	"strings"
)

// Signature derives a stable string signature from a task's type and input
// shape. The format is taskType_kind_shape, where shape is:
//
//   - array  -> "array_<len>"
//   - object -> "object_<keyCount>_<first3SortedKeys joined by _>"
//   - scalar -> the scalar's kind
//
// Object keys are taken in sorted order so the signature is deterministic
// regardless of map iteration. Near-duplicate shapes (same kind, close
// sizes) produce signatures that score high under SignatureSimilarity.
func Signature(taskType string, input Value) string {
	return fmt.Sprintf("%s_%s_%s", taskType, input.Kind(), shapeDescriptor(input))
}

func shapeDescriptor(input Value) string {
	switch input.Kind() {
	case KindArray:
		arr, _ := input.AsArray()
		return fmt.Sprintf("array_%d", len(arr))
	case KindObject:
		keys := input.SortedKeys()
		head := keys
		if len(head) > 3 {
			head = head[:3]
		}
		if len(head) == 0 {
			return "object_0"
		}
		return fmt.Sprintf("object_%d_%s", len(keys), strings.Join(head, "_"))
	default:
		return string(input.Kind())
	}
}

// SignatureSimilarity scores two signatures by positional token match:
// the number of underscore-delimited tokens equal at the same position,
// divided by the longer signature's token count. Result is in [0,1].
func SignatureSimilarity(a, b string) float64 {
	ta := strings.Split(a, "_")
	tb := strings.Split(b, "_")

	longer := len(ta)
	if len(tb) > longer {
		longer = len(tb)
	}
	if longer == 0 {
		return 1.0
	}

	shorter := len(ta)
	if len(tb) < shorter {
		shorter = len(tb)
	}
	matches := 0
	for i := 0; i < shorter; i++ {
		if ta[i] == tb[i] {
			matches++
		}
	}
	return float64(matches) / float64(longer)
}
