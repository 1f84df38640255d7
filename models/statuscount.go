package models

// StatusCounts maps every recognized status to the number of tasks in it.
type StatusCounts map[Status]int

// CountByStatus counts tasks per recognized status. Every recognized status
// is present in the result; tasks with any other status are left out.
func CountByStatus(tasks []Task) StatusCounts {
	counts := make(StatusCounts, len(Statuses))
	for _, s := range Statuses {
		counts[s] = 0
	}
	for _, t := range tasks {
		if _, ok := counts[t.Status]; ok {
			counts[t.Status]++
		}
	}
	return counts
}
