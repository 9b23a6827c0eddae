// Package schema checks story configurations before they reach the engine.
//
// ValidateConfiguration walks a domain.Configuration and reports every
// inconsistency between its intents, state tree, actions, contexts and unknown
// answers in a single AggregateError, so that authoring mistakes surface at load
// time instead of in the middle of a conversation:
//
//	if err := schema.ValidateConfiguration(cfg, schema.WithHandlerCatalog(repo)); err != nil {
//	    for _, e := range schema.ValidationErrors(err) {
//	        log.Println(e)
//	    }
//	}
//
// The package also carries the small type system used to check context values
// declared with a type ("string", "int", "float", "bool", "any").
package schema
