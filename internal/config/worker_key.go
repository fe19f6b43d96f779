package config

type WorkerKeyStruct struct {
	DomainEventsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	DomainEventsQueue: "domain_events_queue",
}
