package usecase

// Export for testing
var BuildEventPayload = buildEventPayload
