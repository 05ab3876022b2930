// Package control exposes a node over gRPC so that messages can be submitted
// and state inspected from outside the process.
//
// The service is tokenring.Control with two unary methods:
//
//	Submit(google.protobuf.StringValue) returns (google.protobuf.Empty)
//	Status(google.protobuf.Empty) returns (google.protobuf.Struct)
//
// Submit takes the same "destination:message" line the console accepts. A
// full queue is reported as RESOURCE_EXHAUSTED and a bad line as
// INVALID_ARGUMENT. The endpoint also serves grpc.health.v1 and server
// reflection.
package control
