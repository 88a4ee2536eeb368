package slices

func Map[T any, R any](sli []T, mapper func(T) R) []R {
	if sli == nil {
		return nil
	}
	mapped := make([]R, len(sli))
	for nth, v := range sli {
		mapped[nth] = mapper(v)
	}
	return mapped
}

func Filter[T any](sli []T, pred func(T) bool) []T {
	if sli == nil {
		return nil
	}
	filtered := make([]T, 0, len(sli))
	for _, v := range sli {
		if pred(v) {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

func First[T any](sli []T, pred func(T) bool) (T, bool) {
	for _, v := range sli {
		if pred(v) {
			return v, true
		}
	}
	return *new(T), false
}
