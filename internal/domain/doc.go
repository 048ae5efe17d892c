// Package domain defines the core business entities of the content
// generation service: the Job record, its status state machine, and the
// closed set of supported content types. Entities validate themselves and
// enforce their own transition rules so that storage and transport layers
// can stay free of business logic.
package domain
