package scraper

import (
	"fmt"

	"github.com/aluiziolira/go-scrape-products/models"
)

// Partition splits pages 1..totalPages into workerCount contiguous ranges
// whose sizes differ by at most one. Larger partitions come first, so 10
// pages over 4 workers yields sizes 3,3,2,2. When workerCount exceeds
// totalPages the trailing partitions are empty.
func Partition(totalPages, workerCount int) ([]models.Partition, error) {
	if totalPages < 1 {
		return nil, fmt.Errorf("partition: total pages must be >= 1, got %d", totalPages)
	}
	if workerCount < 1 {
		return nil, fmt.Errorf("partition: worker count must be >= 1, got %d", workerCount)
	}

	base := totalPages / workerCount
	extra := totalPages % workerCount

	partitions := make([]models.Partition, workerCount)
	first := 1
	for i := range partitions {
		size := base
		if i < extra {
			size++
		}
		partitions[i] = models.Partition{Index: i, First: first, Last: first + size - 1}
		first += size
	}
	return partitions, nil
}
