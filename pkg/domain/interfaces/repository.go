package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Memory() MemoryRepository
	Journal() JournalRepository

	Close() error
}
