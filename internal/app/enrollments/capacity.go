package enrollments

// SlotAvailable reports whether a trip with capacity maxPeople and currentCount
// enrollments can take one more. currentCount must come from the same atomic
// scope as the write that follows.
func SlotAvailable(maxPeople, currentCount int) bool {
	return currentCount < maxPeople
}

// FreeSlots returns how many more clients a trip can take, never negative.
func FreeSlots(maxPeople, currentCount int) int {
	if !SlotAvailable(maxPeople, currentCount) {
		return 0
	}
	return maxPeople - currentCount
}
