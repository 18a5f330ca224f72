package batch

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result represents the result of a single operation in a batch
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"` // "success" or "error"
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Succeeded reports whether the operation completed without error
func (r Result) Succeeded() bool {
	return r.Status == StatusSuccess
}

// Summary represents the aggregated results of a batch operation
type Summary struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// Process runs fn on each item in order and collects one result per item.
// id names the item in its result.
func Process[T any](items []T, id func(T) string, fn func(T) (string, error)) []Result {
	results := make([]Result, 0, len(items))

	for _, item := range items {
		res, err := fn(item)
		if err != nil {
			results = append(results, NewErrorResult(id(item), err))
			continue
		}
		results = append(results, NewSuccessResult(id(item), res))
	}

	return results
}

// Summarize counts the successful and failed results
func Summarize(results []Result) Summary {
	s := Summary{
		Total:   len(results),
		Results: results,
	}

	for _, r := range results {
		if r.Succeeded() {
			s.Successful++
		} else {
			s.Failed++
		}
	}

	return s
}

// NewSuccessResult creates a success result
func NewSuccessResult(id, message string) Result {
	return Result{
		ID:     id,
		Status: StatusSuccess,
		Result: message,
	}
}

// NewErrorResult creates an error result
func NewErrorResult(id string, err error) Result {
	return Result{
		ID:     id,
		Status: StatusError,
		Error:  err.Error(),
	}
}
