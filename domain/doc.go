// Package domain defines the core business types of the prospect application.
// It contains the primary models, such as CompanyProfile, SearchResult, and
// MatchReport, as well as the repository interfaces that define the contracts
// for data persistence.
//
// This package serves as the central point for application-wide types and
// business rules, ensuring a clean separation between the application's core
// logic and its implementation details, such as the database, HTTP layer, or
// external services. By defining interfaces for repositories, the domain
// package remains independent of the data storage technology.
package domain
